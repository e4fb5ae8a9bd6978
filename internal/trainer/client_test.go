package trainer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spam-trainer/internal/domain"
)

func testFile(name, content string) domain.CandidateFile {
	return domain.NewCandidateFile(name, int64(len(content)), func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fixed := time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.UTC)
	return NewClient(domain.Settings{ServiceURL: srv.URL + "/"}, WithHTTPClient(srv.Client()), WithClock(func() time.Time { return fixed }))
}

// TestSubmitSendsMultipartFields checks the request shape of a submission.
func TestSubmitSendsMultipartFields(t *testing.T) {
	var (
		gotPath, gotModel, gotStamp, gotName, gotBody string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotModel = r.FormValue(FieldModelType)
		gotStamp = r.FormValue(FieldTimestamp)
		f, header, err := r.FormFile(FieldDataset)
		if err != nil {
			t.Errorf("dataset part: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotName, gotBody = header.Filename, string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"test_accuracy":0.97,"plots":{"a":"b"}}`)
	})

	result, err := client.Submit(context.Background(), testFile("emails.csv", "label,text\nham,hi\n"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if gotPath != "/process" {
		t.Fatalf("path = %q, want /process", gotPath)
	}
	if gotModel != domain.DefaultModelType {
		t.Fatalf("model_type = %q", gotModel)
	}
	if gotStamp != "2025-03-04T05:06:07.890Z" {
		t.Fatalf("timestamp = %q", gotStamp)
	}
	if gotName != "emails.csv" || gotBody != "label,text\nham,hi\n" {
		t.Fatalf("dataset = %q %q", gotName, gotBody)
	}
	if string(result.Raw) != `{"test_accuracy":0.97,"plots":{"a":"b"}}` {
		t.Fatalf("result not kept verbatim: %s", result.Raw)
	}
}

// TestSubmitFailureMessages checks how failed responses map to messages.
func TestSubmitFailureMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server message", http.StatusBadRequest, `{"error":"CSV must contain 'label' and 'text' columns"}`, "CSV must contain 'label' and 'text' columns"},
		{"no message", http.StatusInternalServerError, `oops`, FallbackSubmissionMessage},
		{"empty error field", http.StatusBadGateway, `{"error":""}`, FallbackSubmissionMessage},
		{"error on 200", http.StatusOK, `{"error":"dataset too small"}`, "dataset too small"},
		{"malformed 200", http.StatusOK, `not json`, "invalid response from training service"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			_, err := client.Submit(context.Background(), testFile("a.csv", "x"))
			var subErr *SubmissionError
			if !errors.As(err, &subErr) {
				t.Fatalf("error = %T %v, want *SubmissionError", err, err)
			}
			if subErr.Message != tc.want {
				t.Fatalf("message = %q, want %q", subErr.Message, tc.want)
			}
			if subErr.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", subErr.StatusCode, tc.status)
			}
		})
	}
}

// TestSubmitIgnoresFalsyErrorField checks a 2xx body whose error field is
// false, empty or zero is still a successful training result.
func TestSubmitIgnoresFalsyErrorField(t *testing.T) {
	for _, body := range []string{
		`{"test_accuracy":0.9,"error":false}`,
		`{"test_accuracy":0.9,"error":""}`,
		`{"test_accuracy":0.9,"error":0}`,
		`{"test_accuracy":0.9,"error":null}`,
	} {
		t.Run(body, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})

			result, err := client.Submit(context.Background(), testFile("a.csv", "x"))
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if string(result.Raw) != body {
				t.Fatalf("result = %s", result.Raw)
			}
		})
	}
}

func TestServerErrorTruthiness(t *testing.T) {
	cases := []struct {
		body    string
		wantMsg string
		wantOK  bool
	}{
		{`{"error":"boom"}`, "boom", true},
		{`{"error":true}`, "true", true},
		{`{"error":{"code":7}}`, `{"code":7}`, true},
		{`{"error":[]}`, `[]`, true},
		{`{"error":1}`, "1", true},
		{`{"error":false}`, "", false},
		{`{"error":""}`, "", false},
		{`{"error":0}`, "", false},
		{`{"error":null}`, "", false},
		{`{"ok":1}`, "", false},
	}
	for _, tc := range cases {
		msg, ok := serverError([]byte(tc.body))
		if msg != tc.wantMsg || ok != tc.wantOK {
			t.Fatalf("serverError(%s) = %q, %v; want %q, %v", tc.body, msg, ok, tc.wantMsg, tc.wantOK)
		}
	}
}

// TestSubmitTransportFailure checks unreachable services surface as SubmissionError.
func TestSubmitTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(domain.Settings{ServiceURL: url, RequestTimeoutSeconds: 2})
	_, err := client.Submit(context.Background(), testFile("a.csv", "x"))

	var subErr *SubmissionError
	if !errors.As(err, &subErr) || subErr.Err == nil {
		t.Fatalf("error = %v, want transport SubmissionError", err)
	}
}

// TestSubmitCancelled checks context cancellation aborts the request.
func TestSubmitCancelled(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Submit(ctx, testFile("a.csv", "x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

// TestSubmitOpenFailure checks unreadable files fail before any request.
func TestSubmitOpenFailure(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	broken := domain.NewCandidateFile("a.csv", 1, func() (io.ReadCloser, error) {
		return nil, errors.New("gone")
	})
	if _, err := client.Submit(context.Background(), broken); err == nil {
		t.Fatal("expected error")
	}
	if called {
		t.Fatal("request sent for unreadable file")
	}
}

// TestPredictRoundTrip checks the prediction request and decoded result.
func TestPredictRoundTrip(t *testing.T) {
	var sent predictRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&sent)
		_, _ = io.WriteString(w, `{"prediction":"Spam","ham_probability":0.03,"spam_probability":0.97,"processed_text":"win free prize"}`)
	})

	got, err := client.Predict(context.Background(), "WIN a FREE prize")
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if sent.EmailText != "WIN a FREE prize" {
		t.Fatalf("email_text = %q", sent.EmailText)
	}
	if got.Prediction != domain.LabelSpam || !got.HighConfidence() {
		t.Fatalf("result = %+v", got)
	}
}

// TestPredictFailureMessages checks error mapping for predictions.
func TestPredictFailureMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status fallback", http.StatusServiceUnavailable, ``, "HTTP error: status 503"},
		{"server message", http.StatusBadRequest, `{"error":"No model trained yet"}`, "No model trained yet"},
		{"error on 200", http.StatusOK, `{"error":"model not loaded"}`, "model not loaded"},
		{"malformed", http.StatusOK, `[1,2`, "invalid response from prediction service"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			_, err := client.Predict(context.Background(), "hello")
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("error = %T %v, want *RequestError", err, err)
			}
			if reqErr.Message != tc.want {
				t.Fatalf("message = %q, want %q", reqErr.Message, tc.want)
			}
		})
	}
}

// TestPing checks reachability probing.
func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

// TestNewClientDefaults checks base url trimming and the model fallback.
func TestNewClientDefaults(t *testing.T) {
	c := NewClient(domain.Settings{ServiceURL: " http://svc:5000/ "})
	if c.BaseURL() != "http://svc:5000" {
		t.Fatalf("base url = %q", c.BaseURL())
	}
	if c.ModelType() != domain.DefaultModelType {
		t.Fatalf("model type = %q", c.ModelType())
	}
}
