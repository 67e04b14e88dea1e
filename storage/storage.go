// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"
)

var (
	ErrNotConfigured = errors.New("blob storage not configured")
	ErrBlobNotFound  = errors.New("blob not found")
)

// CredentialTTL is how long an upload credential stays valid
const CredentialTTL = 2 * time.Hour

// Credential grants a client direct upload access to one session's folder
type Credential struct {
	Container string    `json:"container"`
	Path      string    `json:"path"`
	SASURL    string    `json:"sas_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Gateway is what handlers need from object storage
type Gateway interface {
	IssueUploadCredential(ctx context.Context, userID string, imuSessionID int64) (Credential, error)
	BlobSize(ctx context.Context, blobPath string) (int64, error)
}

// SessionPath is the folder holding every file of one IMU session
func SessionPath(userID string, imuSessionID int64) string {
	return fmt.Sprintf("users/%s/sessions/%d/", userID, imuSessionID)
}

// AzureGateway implements Gateway on an Azure Blob Storage container
type AzureGateway struct {
	container     *container.Client
	containerName string
	now           func() time.Time
}

// NewAzureGateway builds a gateway from a storage account connection string
func NewAzureGateway(connectionString, containerName string) (*AzureGateway, error) {
	if connectionString == "" {
		return nil, ErrNotConfigured
	}

	svc, err := service.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob service client: %w", err)
	}

	return &AzureGateway{
		container:     svc.NewContainerClient(containerName),
		containerName: containerName,
		now:           time.Now,
	}, nil
}

// IssueUploadCredential makes sure the container exists and signs a
// container SAS (read, write, create, list) valid for CredentialTTL.
func (g *AzureGateway) IssueUploadCredential(ctx context.Context, userID string, imuSessionID int64) (Credential, error) {
	if _, err := g.container.Create(ctx, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return Credential{}, fmt.Errorf("failed to create container %s: %w", g.containerName, err)
	}

	start := g.now().UTC()
	expiry := start.Add(CredentialTTL)
	perms := sas.ContainerPermissions{Read: true, Write: true, Create: true, List: true}

	containerSAS, err := g.container.GetSASURL(perms, expiry, &container.GetSASURLOptions{StartTime: &start})
	if err != nil {
		return Credential{}, fmt.Errorf("failed to sign SAS: %w", err)
	}

	path := SessionPath(userID, imuSessionID)
	sasURL, err := JoinSASURL(containerSAS, path)
	if err != nil {
		return Credential{}, err
	}

	return Credential{
		Container: g.containerName,
		Path:      path,
		SASURL:    sasURL,
		ExpiresAt: expiry,
	}, nil
}

// BlobSize returns the stored size of blobPath, or ErrBlobNotFound
func (g *AzureGateway) BlobSize(ctx context.Context, blobPath string) (int64, error) {
	props, err := g.container.NewBlobClient(blobPath).GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrBlobNotFound, blobPath)
		}
		return 0, fmt.Errorf("failed to read blob properties for %s: %w", blobPath, err)
	}
	if props.ContentLength == nil {
		return 0, nil
	}
	return *props.ContentLength, nil
}

// JoinSASURL appends a folder path to a signed container URL, keeping the
// signature query intact.
func JoinSASURL(containerSASURL, path string) (string, error) {
	u, err := url.Parse(containerSASURL)
	if err != nil {
		return "", fmt.Errorf("invalid SAS URL: %w", err)
	}
	if u.RawQuery == "" {
		return "", errors.New("invalid SAS URL: missing signature")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawPath = ""
	return u.String(), nil
}
