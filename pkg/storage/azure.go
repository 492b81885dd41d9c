package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"go.uber.org/zap"
)

// AzureConfig contains configuration for an Azure Blob Storage container.
type AzureConfig struct {
	Container      string
	StorageAccount string
	// ServiceURL overrides the URL derived from StorageAccount,
	// e.g. http://127.0.0.1:10000/devstoreaccount1 for Azurite.
	ServiceURL string
	// ConnectionString takes priority over token credentials when set.
	ConnectionString string
	// Credential defaults to DefaultAzureCredential.
	Credential azcore.TokenCredential
}

// AzureBucket is a Bucket backed by an Azure Blob Storage container.
type AzureBucket struct {
	container string
	client    *azblob.Client
	log       *zap.SugaredLogger
}

// NewAzureBucket creates an AzureBucket.
//
// Unless a connection string or a credential is configured it uses
// DefaultAzureCredential which tries:
// 1. Environment credentials (AZURE_CLIENT_ID, AZURE_TENANT_ID, AZURE_CLIENT_SECRET)
// 2. Managed Identity (on Azure VMs, AKS, etc.)
// 3. Azure CLI credentials
func NewAzureBucket(ctx context.Context, cfg *AzureConfig, logger *zap.SugaredLogger) (*AzureBucket, error) {
	if cfg.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Blob client: %w", err)
		}
		return NewAzureBucketWithClient(cfg.Container, client, logger), nil
	}

	cred := cfg.Credential
	if cred == nil {
		dc, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get Azure credentials: %w", err)
		}
		cred = dc
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.StorageAccount)
	}
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure Blob client: %w", err)
	}

	return NewAzureBucketWithClient(cfg.Container, client, logger), nil
}

// NewAzureBucketWithClient creates an AzureBucket that issues its calls through client.
func NewAzureBucketWithClient(container string, client *azblob.Client, logger *zap.SugaredLogger) *AzureBucket {
	if logger == nil {
		logger = zap.S()
	}
	return &AzureBucket{
		container: container,
		client:    client,
		log:       logger,
	}
}

func (b *AzureBucket) Name() string {
	return b.container
}

func (b *AzureBucket) Get(ctx context.Context, key string) (*Object, error) {
	b.log.Infow("getting object", "bucket", b.container, "key", key, "op", OpGet)
	if _, err := b.blob(key).GetProperties(ctx, nil); err != nil {
		return nil, newAzureBucketError(b.container, key, OpGet, err)
	}
	return NewObject(key, b.loader(key)), nil
}

func (b *AzureBucket) List(ctx context.Context) ([]*Object, error) {
	b.log.Infow("listing objects", "bucket", b.container, "op", OpList)

	var keys []string
	pager := b.client.NewListBlobsFlatPager(b.container, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, newAzureBucketError(b.container, "", OpList, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}

	objects := make([]*Object, 0, len(keys))
	for _, key := range keys {
		obj, err := b.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (b *AzureBucket) Create(ctx context.Context, key string, content io.Reader) (*Object, error) {
	b.log.Infow("creating object", "bucket", b.container, "key", key, "op", OpCreate)

	ct := contentType(key)
	_, err := b.client.UploadStream(ctx, b.container, key, content, &azblob.UploadStreamOptions{
		BlockSize: 4 * 1024 * 1024, // 4 MiB blocks
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &ct,
		},
	})
	if err != nil {
		return nil, newAzureBucketError(b.container, key, OpCreate, err)
	}
	return b.Get(ctx, key)
}

func (b *AzureBucket) Delete(ctx context.Context, key string) (bool, error) {
	b.log.Infow("deleting object", "bucket", b.container, "key", key, "op", OpDelete)
	if _, err := b.client.DeleteBlob(ctx, b.container, key, nil); err != nil {
		return false, newAzureBucketError(b.container, key, OpDelete, err)
	}
	return true, nil
}

func (b *AzureBucket) blob(key string) *blob.Client {
	return b.client.ServiceClient().NewContainerClient(b.container).NewBlobClient(key)
}

func (b *AzureBucket) loader(key string) ContentLoader {
	return func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := b.client.DownloadStream(ctx, b.container, key, nil)
		if err != nil {
			return nil, newAzureBucketError(b.container, key, OpGet, err)
		}
		return resp.Body, nil
	}
}
