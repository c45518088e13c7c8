package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ProviderName = "s3"

	credentialType = "s3_access_key"
)

// Credential is the on-disk format of an S3-compatible access key credential.
type Credential struct {
	Type      string `json:"type"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	UseSSL    *bool  `json:"use_ssl,omitempty"`
}

// ParseCredential decodes and validates a credential file.
func ParseCredential(data []byte) (Credential, error) {
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, fmt.Errorf("invalid credential json: %w", err)
	}
	if cred.Type != credentialType {
		return Credential{}, fmt.Errorf("'type' field is %q (expected %q)", cred.Type, credentialType)
	}
	if cred.Endpoint == "" {
		return Credential{}, fmt.Errorf("endpoint must be provided")
	}
	if cred.AccessKey == "" || cred.SecretKey == "" {
		return Credential{}, fmt.Errorf("access_key and secret_key must be provided")
	}
	if cred.Bucket == "" {
		return Credential{}, fmt.Errorf("bucket must be provided")
	}
	return cred, nil
}

// hostAndTLS strips any scheme from the endpoint, since minio expects a bare
// host, and decides whether to use TLS.
func (c Credential) hostAndTLS() (string, bool) {
	endpoint := strings.TrimSpace(c.Endpoint)
	secure := true
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
		secure = false
	}
	if c.UseSSL != nil {
		secure = *c.UseSSL
	}
	return strings.TrimSuffix(strings.TrimPrefix(endpoint, "//"), "/"), secure
}

func (c Credential) region() string {
	region := strings.TrimSpace(c.Region)
	if region == "" {
		region = "us-east-1"
	}
	return region
}

// folderPrefix turns a folder id into a listing prefix ending in "/".
func folderPrefix(folderID string) string {
	folderID = strings.Trim(strings.TrimSpace(folderID), "/")
	if folderID == "" {
		return ""
	}
	return folderID + "/"
}

// objectKey places remoteName under folderID, or at the bucket root.
func objectKey(folderID, remoteName string) string {
	return folderPrefix(folderID) + strings.TrimPrefix(remoteName, "/")
}

// folderName is the last segment of a common prefix.
func folderName(prefix string) string {
	trimmed := strings.TrimSuffix(prefix, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
