//go:build azurite

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

// Run with an Azurite blob service listening on AZURITE_URL, e.g.
//
//	docker run --rm -p 10000:10000 mcr.microsoft.com/azure-storage/azurite azurite-blob --blobHost 0.0.0.0
//	AZURITE_URL=http://127.0.0.1:10000/devstoreaccount1 go test -tags azurite ./pkg/storage/
var _ = Describe("AzureBucket", func() {
	const (
		accountName = "devstoreaccount1"
		accountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
	)

	ctx := context.Background()
	var b *AzureBucket
	var container string
	var seq int

	BeforeEach(func() {
		azuriteURL := os.Getenv("AZURITE_URL")
		if azuriteURL == "" {
			Skip("AZURITE_URL is not set")
		}

		connectionString := fmt.Sprintf("DefaultEndpointsProtocol=http;AccountName=%s;AccountKey=%s;BlobEndpoint=%s;",
			accountName, accountKey, azuriteURL)

		client, err := azblob.NewClientFromConnectionString(connectionString, nil)
		Expect(err).NotTo(HaveOccurred())

		seq++
		container = fmt.Sprintf("fires3-test-%d-%d", GinkgoRandomSeed(), seq)
		_, err = client.CreateContainer(ctx, container, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_, _ = client.DeleteContainer(ctx, container, nil)
		})

		b, err = NewAzureBucket(ctx, &AzureConfig{
			Container:        container,
			ConnectionString: connectionString,
		}, zap.NewNop().Sugar())
		Expect(err).NotTo(HaveOccurred())

		for _, key := range []string{"object_1", "object_2"} {
			_, err := b.Create(ctx, key, strings.NewReader(key))
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("should get seeded objects", func() {
		obj, err := b.Get(ctx, "object_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(obj.Key()).To(Equal("object_1"))

		rc, err := obj.Content(ctx)
		Expect(err).NotTo(HaveOccurred())
		defer rc.Close()
		Expect(readAllString(rc)).To(Equal("object_1"))
	})

	It("should list, create and delete objects", func() {
		objects, err := b.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(objects).To(HaveLen(2))

		obj, err := b.Create(ctx, "object_3", strings.NewReader("object_3"))
		Expect(err).NotTo(HaveOccurred())
		Expect(obj.Key()).To(Equal("object_3"))

		deleted, err := b.Delete(ctx, "object_2")
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted).To(BeTrue())

		_, err = b.Get(ctx, "object_2")
		var bucketErr *AzureBucketError
		Expect(err).To(BeAssignableToTypeOf(bucketErr))
		Expect(IsNotExist(err)).To(BeTrue())
	})

	It("should fail to delete a missing object", func() {
		deleted, err := b.Delete(ctx, "missing")
		Expect(err).To(HaveOccurred())
		Expect(deleted).To(BeFalse())
		Expect(IsNotExist(err)).To(BeTrue())
	})
})

func readAllString(r io.Reader) string {
	data, err := io.ReadAll(r)
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}
