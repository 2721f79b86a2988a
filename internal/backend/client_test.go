package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	if _, err := NewClient("localhost:8000", 0); err == nil {
		t.Error("expected error for URL without scheme")
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != PathLogin {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Error(err)
			return
		}
		if r.PostForm.Get("username") != "ana maria" || r.PostForm.Get("password") != "p&ss=1" {
			t.Errorf("form = %v", r.PostForm)
		}
		io.WriteString(w, `{"access_token":"tok-1","token_type":"bearer"}`)
	})

	tok, err := c.Login(context.Background(), "ana maria", "p&ss=1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("token = %q, want tok-1", tok)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Incorrect username or password"}`, ErrUnauthorized},
		{"missing token", http.StatusOK, `{"token_type":"bearer"}`, ErrNoToken},
		{"numeric token", http.StatusOK, `{"access_token":42}`, ErrNoToken},
		{"not json", http.StatusOK, `<html>`, errInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.Login(context.Background(), "u", "p")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractPatientData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathExtract {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		if hdr.Filename != "report.pdf" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		b, _ := io.ReadAll(f)
		if string(b) != "%PDF-1.4" {
			t.Errorf("content = %q", b)
		}
		io.WriteString(w, `{"extracted_data":{"pregnancies":2,"glucose":148,"bmi":33.6,"Date":"2024-01-02"}}`)
	})

	rec, err := c.ExtractPatientData(context.Background(), "tok", "report.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("ExtractPatientData: %v", err)
	}

	want := []string{"pregnancies", "glucose", "bmi", "Date"}
	got := rec.Keys()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("keys = %v, want %v (backend order)", got, want)
	}
	if v, _ := rec.Get("bmi"); v != 33.6 {
		t.Errorf("bmi = %v", v)
	}
}

func TestExtractPatientData_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Could not extract data from PDF.", http.StatusBadRequest)
		})
		_, err := c.ExtractPatientData(context.Background(), "tok", "a.pdf", strings.NewReader("x"))
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
			t.Fatalf("err = %v, want *StatusError 400", err)
		}
		if IsUnauthorized(err) {
			t.Error("400 must not count as unauthorized")
		}
	})

	t.Run("missing extracted_data", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{}`)
		})
		if _, err := c.ExtractPatientData(context.Background(), "tok", "a.pdf", strings.NewReader("x")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantPositive bool
		wantFactors  []string
	}{
		{
			name:         "positive with factors",
			body:         `{"prediction":1,"score":0.87,"top_factors":{"glucose":0.42,"bmi":0.21}}`,
			wantPositive: true,
			wantFactors:  []string{"glucose", "bmi"},
		},
		{
			name: "negative",
			body: `{"prediction":0,"score":0.12,"top_factors":{}}`,
		},
		{
			name: "string one is not positive",
			body: `{"prediction":"1","score":0.5}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/classical/predict" || r.Method != http.MethodGet {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				io.WriteString(w, tt.body)
			})

			p, err := c.Predict(context.Background(), "tok", "classical")
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if p.Positive != tt.wantPositive {
				t.Errorf("Positive = %v, want %v", p.Positive, tt.wantPositive)
			}
			if got := p.TopFactors.Keys(); strings.Join(got, ",") != strings.Join(tt.wantFactors, ",") {
				t.Errorf("factors = %v, want %v", got, tt.wantFactors)
			}
		})
	}
}

func TestPredict_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	})

	_, err := c.Predict(context.Background(), "stale", "classical")
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Endpoint != "/classical/predict" {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestPredict_ErrorBodyIsMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"No extracted data found for user. Please upload a PDF first."}`)
	})

	_, err := c.Predict(context.Background(), "tok", "classical")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != `{"detail":"No extracted data found for user. Please upload a PDF first."}` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestPatientHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathHistory {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, `{"extracted_data":[
			{"username":"ana","date":"2024-01-01","glucose":148,"score":0.8},
			{"username":"ana","date":"2024-02-01","glucose":"n/a","score":0.6}
		]}`)
	})

	recs, err := c.PatientHistory(context.Background(), "tok")
	if err != nil {
		t.Fatalf("PatientHistory: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if got := strings.Join(recs[0].Keys(), ","); got != "username,date,glucose,score" {
		t.Errorf("keys = %s", got)
	}
	if v, _ := recs[1].Get("glucose"); v != "n/a" {
		t.Errorf("glucose = %v", v)
	}
}

func TestPatientHistory_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"extracted_data":[]}`)
	})

	recs, err := c.PatientHistory(context.Background(), "tok")
	if err != nil {
		t.Fatalf("PatientHistory: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("recs = %#v, want empty non-nil slice", recs)
	}
}

func TestPatientHistory_NotAList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"extracted_data":{"error":"boom"}}`)
	})
	if _, err := c.PatientHistory(context.Background(), "tok"); err == nil {
		t.Error("expected error")
	}
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"message":"Welcome to the Diabetes Prediction API!"}`)
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if err := down.Ping(context.Background()); err == nil {
		t.Error("expected error for 503")
	}
}

func TestErrorBodyIsCapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, strings.Repeat("x", maxErrorBody+100))
	})
	_, err := c.Predict(context.Background(), "tok", "classical")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	if len(se.Body) != maxErrorBody {
		t.Errorf("body len = %d, want %d", len(se.Body), maxErrorBody)
	}
}

func TestClient_KeepsBasePath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			io.WriteString(w, `{"access_token":"tok-1"}`)
		case "/api/classical/predict":
			io.WriteString(w, `{"prediction":0,"score":0.1}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	for _, base := range []string{srv.URL + "/api", srv.URL + "/api/"} {
		c, err := NewClient(base, 0)
		if err != nil {
			t.Fatalf("NewClient(%q): %v", base, err)
		}
		if _, err := c.Login(context.Background(), "ana", "pw"); err != nil {
			t.Errorf("Login via %q: %v", base, err)
		}
		if _, err := c.Predict(context.Background(), "tok-1", "classical"); err != nil {
			t.Errorf("Predict via %q: %v", base, err)
		}
	}
}
