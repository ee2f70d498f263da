package analysis

import (
	"context"
	"encoding/json"

	"github.com/pokymono/kisame-sub001/internal/backend"
	"github.com/pokymono/kisame-sub001/internal/progress"
)

// HTTPRemote binds the backend client to a base URL resolved for one
// request. The URL is resolved once per request, never cached across them,
// so config edits take effect without a restart.
type HTTPRemote struct {
	Client  *backend.Client
	BaseURL string
}

var _ Remote = (*HTTPRemote)(nil)

func (r *HTTPRemote) TsharkVersion(ctx context.Context) (backend.TsharkHealth, error) {
	return r.Client.TsharkVersion(ctx, r.BaseURL)
}

func (r *HTTPRemote) UploadPcap(ctx context.Context, path, clientID string, emit progress.Func) (string, error) {
	return r.Client.UploadPcap(ctx, r.BaseURL, path, clientID, emit)
}

func (r *HTTPRemote) AnalyzePcap(ctx context.Context, sessionID string, maxPackets int) (json.RawMessage, error) {
	return r.Client.AnalyzePcap(ctx, r.BaseURL, sessionID, maxPackets)
}
