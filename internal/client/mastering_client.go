package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"exam-mex-backend/internal/ctxlog"
	"exam-mex-backend/internal/examxml"
	"exam-mex-backend/internal/model"
)

var ErrRateLimited = errors.New("mastering service rate limit exceeded")

var mediaExpr = func() *xpath.Expr {
	expr, err := xpath.CompileWithNS("//e:image[@src] | //e:audio[@src] | //e:video[@src]",
		map[string]string{"e": examxml.ExamNamespace})
	if err != nil {
		panic(err)
	}
	return expr
}()

type masterRequest struct {
	ExamUUID      string                         `json:"examUuid"`
	XML           string                         `json:"xml"`
	Options       model.MasteringOptions         `json:"options"`
	MediaMetadata map[string]model.MediaMetadata `json:"mediaMetadata"`
}

type masterResponse struct {
	Results []model.MasteringResult `json:"results"`
}

// MasteringClient talks to the remote exam mastering service.
type MasteringClient struct {
	BaseURL      string
	HTTPClient   *http.Client
	DumpRequests bool
}

func NewMasteringClient(baseURL string, timeout time.Duration, dumpRequests bool) *MasteringClient {
	return &MasteringClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		DumpRequests: dumpRequests,
	}
}

func logRequest(logger *slog.Logger, req *http.Request, description string) {
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		logger.Warn("could not dump request", "request", description, "error", err)
		return
	}
	logger.Debug("http request sent", "request", description, "dump", string(dump))
}

func setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

// MasterExam sends exam markup to the mastering service. Metadata for every
// media element referenced in the markup is resolved before the call.
func (c *MasteringClient) MasterExam(
	ctx context.Context,
	xml string,
	examID func() string,
	resolve model.MediaMetadataResolver,
	opts model.MasteringOptions,
) ([]model.MasteringResult, error) {
	logger := ctxlog.FromContext(ctx)

	metadata, err := resolveMediaMetadata(xml, resolve)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(masterRequest{
		ExamUUID:      examID(),
		XML:           xml,
		Options:       opts,
		MediaMetadata: metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("encode mastering request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/master", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create mastering request: %w", err)
	}
	setCommonHeaders(req)
	if c.DumpRequests {
		logRequest(logger, req, "Master Exam")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			logger.Error("mastering request timed out", "timeout", c.HTTPClient.Timeout.String())
		}
		return nil, fmt.Errorf("mastering request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Warn("mastering service returned non-200 status", "status", resp.Status, "body", string(body))
		return nil, fmt.Errorf("mastering service returned status %s", resp.Status)
	}

	var result masterResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode mastering response: %w", err)
	}
	logger.Debug("mastering finished", "results", len(result.Results))
	return result.Results, nil
}

func resolveMediaMetadata(xml string, resolve model.MediaMetadataResolver) (map[string]model.MediaMetadata, error) {
	doc, err := xmlquery.Parse(strings.NewReader(xml))
	if err != nil {
		return nil, fmt.Errorf("parse exam markup: %w", err)
	}

	metadata := make(map[string]model.MediaMetadata)
	for _, n := range xmlquery.QuerySelectorAll(doc, mediaExpr) {
		src := n.SelectAttr("src")
		if _, seen := metadata[src]; seen {
			continue
		}
		m, err := resolve(src, model.AttachmentType(n.Data))
		if err != nil {
			return nil, fmt.Errorf("resolve metadata for %s: %w", src, err)
		}
		metadata[src] = m
	}
	return metadata, nil
}
