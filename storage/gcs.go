package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

var (
	ErrObjectNotSignable = errors.New("object cannot be signed")
)

type Options struct {
	CredentialsFile string
	BucketName      string
}

func New(ctx context.Context, options Options) (*GoogleStorage, error) {
	client, err := storage.NewClient(ctx, option.WithCredentialsFile(options.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %v", err)
	}
	gs := &GoogleStorage{
		client: client,
		bucket: options.BucketName,
	}

	b, err := ioutil.ReadFile(options.CredentialsFile)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(b, &gs.serviceAccountDetails); err != nil {
		return nil, err
	}

	return gs, nil
}

type GoogleStorage struct {
	client                *storage.Client
	bucket                string
	serviceAccountDetails serviceAccountDetails
}

type serviceAccountDetails struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// Get returns a short-lived signed URL for a photo object. Photo upload
// itself happens elsewhere; the engine only resolves stored object names
// on read.
func (s *GoogleStorage) Get(ctx context.Context, fileName string) (string, error) {
	if fileName == "" {
		return "", nil
	}
	url, err := storage.SignedURL(s.bucket, fileName, &storage.SignedURLOptions{
		GoogleAccessID: s.serviceAccountDetails.ClientEmail,
		PrivateKey:     []byte(s.serviceAccountDetails.PrivateKey),
		Method:         http.MethodGet,
		Expires:        time.Now().Add(time.Second * 180),
	})
	if err != nil {
		return "", errors.Wrap(ErrObjectNotSignable, err.Error())
	}
	return url, nil
}
