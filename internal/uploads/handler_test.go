package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"study-backend/internal/shared/server/middleware"
	"study-backend/internal/shared/util"
)

func TestPresignSignedHeadersExcludeContentLength(t *testing.T) {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	presigner := s3.NewPresignClient(s3.NewFromConfig(cfg))

	out, err := presigner.PresignPutObject(context.Background(), presignInput("bucket", "materials/user/file.pdf"))
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	parsed, err := url.Parse(out.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	signed := parsed.Query().Get("X-Amz-SignedHeaders")
	if signed == "" {
		t.Fatalf("expected X-Amz-SignedHeaders")
	}
	if strings.Contains(signed, "content-length") {
		t.Fatalf("unexpected content-length in signed headers: %s", signed)
	}
}

type fakePresigner struct {
	keys []string
	err  error
}

func (f *fakePresigner) PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, aws.ToString(params.Key))
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3.amazonaws.com/" + aws.ToString(params.Key), Method: http.MethodPut}, nil
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identify(nil))
	h.RegisterRoutes(r.Group("/api/v1", middleware.RequireIdentity()))
	return r
}

func postPresign(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/presign", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "g1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPresignReturnsUserScopedKey(t *testing.T) {
	fake := &fakePresigner{}
	r := newTestRouter(&Handler{Presigner: fake, Bucket: "study-materials", Prefix: "uploads"})

	rec := postPresign(r, `{"fileName":"lecture 1.pdf","sizeBytes":1024}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp presignResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.FileURL, util.HashUserKey("guest:g1")+"/") {
		t.Fatalf("expected key under user hash, got %q", resp.FileURL)
	}
	if !strings.HasSuffix(resp.FileURL, "_lecture 1.pdf") {
		t.Fatalf("expected file name suffix, got %q", resp.FileURL)
	}
	if len(fake.keys) != 1 || fake.keys[0] != "uploads/"+resp.FileURL {
		t.Fatalf("expected prefixed object key, got %v", fake.keys)
	}
	if resp.ExpiresInSeconds != 900 {
		t.Fatalf("expected 900s expiry, got %d", resp.ExpiresInSeconds)
	}
}

func TestPresignValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "bad json", body: `{`},
		{name: "traversal", body: `{"fileName":"../x.pdf","sizeBytes":10}`},
		{name: "docx", body: `{"fileName":"notes.docx","sizeBytes":10}`},
		{name: "too large", body: `{"fileName":"notes.pdf","sizeBytes":999999999}`},
		{name: "zero size", body: `{"fileName":"notes.png","sizeBytes":0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&Handler{Presigner: &fakePresigner{}, Bucket: "b"})
			if rec := postPresign(r, tc.body); rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestPresignFailure(t *testing.T) {
	r := newTestRouter(&Handler{Presigner: &fakePresigner{err: errors.New("no credentials")}, Bucket: "b"})
	if rec := postPresign(r, `{"fileName":"scan.jpg","sizeBytes":10}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
