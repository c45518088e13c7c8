package workflow

import "github.com/andresuchdata/driveup/internal/domain"

// State is the interaction state of one interactive session. It is owned by
// the caller and passed to every action; actions only change the fields
// their description names.
type State struct {
	SelectedFile      string
	SelectedFolderID  string
	CredentialContent string
	Session           domain.Session
	ShowCredential    bool
	Files             []string
	Folders           []domain.RemoteFolder
}

// Snapshot is the JSON view of a State. The credential content is only
// included while ShowCredential is set.
type Snapshot struct {
	SelectedFile      string                `json:"selected_file"`
	SelectedFolderID  string                `json:"selected_folder_id"`
	Authenticated     bool                  `json:"authenticated"`
	Provider          string                `json:"provider,omitempty"`
	HasCredential     bool                  `json:"has_credential"`
	ShowCredential    bool                  `json:"show_credential"`
	CredentialContent string                `json:"credential_content,omitempty"`
	Files             []string              `json:"files"`
	Folders           []domain.RemoteFolder `json:"folders"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		SelectedFile:     s.SelectedFile,
		SelectedFolderID: s.SelectedFolderID,
		Authenticated:    s.Session != nil,
		HasCredential:    s.CredentialContent != "",
		ShowCredential:   s.ShowCredential,
		Files:            s.Files,
		Folders:          s.Folders,
	}
	if s.Session != nil {
		snap.Provider = s.Session.Provider()
	}
	if s.ShowCredential {
		snap.CredentialContent = s.CredentialContent
	}
	if snap.Files == nil {
		snap.Files = []string{}
	}
	if snap.Folders == nil {
		snap.Folders = []domain.RemoteFolder{}
	}
	return snap
}
