package prover

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/chainbridge/powbridge/internal/chainstate"
)

const (
	recentProofObject        = "recent_proof"
	recentProvenHeightObject = "recent_proven_height"
)

// Snapshot is the remote bucket's recent_proof object (§6 "Remote
// snapshot bucket": `{timestamp, chainstate, proof}`).
type Snapshot struct {
	Timestamp  string                `json:"timestamp"`
	ChainState chainstate.ChainState `json:"chainstate"`
	Proof      json.RawMessage       `json:"proof"`
}

// recentProvenHeight is the remote bucket's recent_proven_height
// object.
type recentProvenHeight struct {
	BlockHeight uint32 `json:"block_height"`
}

// SnapshotClient reads and writes the two remote bucket objects of §6.
// Per §9 Design Notes' "Remote snapshot download" strategy, the two
// objects are handled by different transports: recent_proven_height is
// a known-uncompressed fixed-size object, downloaded and uploaded
// through the storage client library; recent_proof may be
// gzip-Content-Encoded, so it is downloaded through a plain
// bearer-token HTTP client that can stream without requiring a
// pre-known content-length — some storage client libraries cannot do
// this for compressed bodies. recent_proof is uploaded through the
// storage client library.
type SnapshotClient struct {
	svc         *storage.Service
	bucket      string
	bearerToken string
	http        *http.Client
}

// NewSnapshotClient dials the GCS JSON API. bearerToken authenticates
// the plain-HTTP gzip download path; opts configures the storage/v1
// client's own credentials for the uncompressed-object path.
func NewSnapshotClient(ctx context.Context, bucket string, bearerToken string, opts ...option.ClientOption) (*SnapshotClient, error) {
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("prover: dial GCS: %w", err)
	}
	return &SnapshotClient{svc: svc, bucket: bucket, bearerToken: bearerToken, http: &http.Client{}}, nil
}

// DownloadRecentProof fetches and decodes the remote recent_proof
// object (§4.9 step 1's download_recent_proof), transparently
// decompressing a gzip-Content-Encoded body. Driver.Prove does not
// call it: its resume height comes from DownloadRecentProvenHeight.
func (c *SnapshotClient) DownloadRecentProof(ctx context.Context) (Snapshot, error) {
	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucket, recentProofObject)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}, err
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("prover: download %s: %w", recentProofObject, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("prover: download %s: status %d", recentProofObject, resp.StatusCode)
	}

	body := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return Snapshot{}, fmt.Errorf("prover: ungzip %s: %w", recentProofObject, err)
		}
		defer gz.Close()
		body = gz
	}

	var snap Snapshot
	if err := json.NewDecoder(body).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("prover: decode %s: %w", recentProofObject, err)
	}
	return snap, nil
}

// DownloadRecentProvenHeight fetches the remote recent_proven_height
// object through the storage client library.
func (c *SnapshotClient) DownloadRecentProvenHeight(ctx context.Context) (uint32, error) {
	resp, err := c.svc.Objects.Get(c.bucket, recentProvenHeightObject).Context(ctx).Download()
	if err != nil {
		return 0, fmt.Errorf("prover: download %s: %w", recentProvenHeightObject, err)
	}
	defer resp.Body.Close()

	var h recentProvenHeight
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return 0, fmt.Errorf("prover: decode %s: %w", recentProvenHeightObject, err)
	}
	return h.BlockHeight, nil
}

// UploadRecentProvenHeight writes the terminal run's height to the
// remote recent_proven_height object (§4.9 step 4).
func (c *SnapshotClient) UploadRecentProvenHeight(ctx context.Context, height uint32) error {
	payload, err := json.Marshal(recentProvenHeight{BlockHeight: height})
	if err != nil {
		return err
	}
	obj := &storage.Object{Name: recentProvenHeightObject, ContentType: "application/json"}
	_, err = c.svc.Objects.Insert(c.bucket, obj).Media(bytes.NewReader(payload)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("prover: upload %s: %w", recentProvenHeightObject, err)
	}
	return nil
}

// UploadRecentProof writes the terminal proof alongside its chain
// state to the remote recent_proof object (§4.9 step 4).
func (c *SnapshotClient) UploadRecentProof(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	obj := &storage.Object{Name: recentProofObject, ContentType: "application/json"}
	_, err = c.svc.Objects.Insert(c.bucket, obj).Media(bytes.NewReader(payload)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("prover: upload %s: %w", recentProofObject, err)
	}
	return nil
}
