package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/oppamcare/oppam/http"
	"github.com/oppamcare/oppam/sms"
)

func TestClient_Send(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "secret")
	require.NoError(t, c.Send(t.Context(), "+919800000002", "OPPAM:Lunch"))
	assert.Equal(t, sendRequest{To: "+919800000002", Body: "OPPAM:Lunch"}, got)
}

func TestClient_Send_gatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"modem offline"}}`))
	}))
	t.Cleanup(srv.Close)

	err := NewClient(srv.URL, "").Send(t.Context(), "+919800000002", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modem offline")
}

type receiverStub struct {
	msgs       []sms.Message
	batch      [][]sms.Segment
	segs       []sms.Segment
	segVerdict sms.Verdict
}

func (r *receiverStub) Receive(_ context.Context, msg sms.Message) sms.Verdict {
	r.msgs = append(r.msgs, msg)
	if strings.HasPrefix(msg.Body, "OPPAM") {
		return sms.VerdictSuppressed
	}
	return sms.VerdictDelivered
}

func (r *receiverStub) ReceiveBatch(_ context.Context, segs []sms.Segment) sms.Verdict {
	r.batch = append(r.batch, segs)
	return sms.VerdictSuppressed
}

func (r *receiverStub) ReceiveSegment(_ context.Context, seg sms.Segment) sms.Verdict {
	r.segs = append(r.segs, seg)
	if r.segVerdict != 0 {
		return r.segVerdict
	}
	return sms.VerdictPending
}

func TestEchoHandler_Inbound(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		segVerdict  sms.Verdict
		wantStatus  int
		wantVerdict string
		check       func(t *testing.T, r *receiverStub)
	}{
		{
			name:        "control text",
			body:        `{"from":"+919800000001","body":"OPPAM:Lunch"}`,
			wantStatus:  http.StatusOK,
			wantVerdict: "suppressed",
			check: func(t *testing.T, r *receiverStub) {
				require.Len(t, r.msgs, 1)
				assert.Equal(t, "OPPAM:Lunch", r.msgs[0].Body)
			},
		},
		{
			name:        "plain text",
			body:        `{"from":"+919800000001","body":"hello"}`,
			wantStatus:  http.StatusOK,
			wantVerdict: "delivered",
		},
		{
			name:        "all parts at once",
			body:        `{"from":"+919800000001","parts":["OPPAM:Take ","BP tablet"]}`,
			wantStatus:  http.StatusOK,
			wantVerdict: "suppressed",
			check: func(t *testing.T, r *receiverStub) {
				require.Len(t, r.batch, 1)
				require.Len(t, r.batch[0], 2)
				assert.Equal(t, 2, r.batch[0][1].Part)
			},
		},
		{
			name:        "single segment",
			body:        `{"from":"+919800000001","body":"OPPAM:Take ","ref":"17","part":1,"total":2}`,
			wantStatus:  http.StatusAccepted,
			wantVerdict: "pending",
		},
		{
			name:        "segment disagrees with earlier parts",
			body:        `{"from":"+919800000001","body":"junk","ref":"17","part":2,"total":3}`,
			segVerdict:  sms.VerdictRejected,
			wantStatus:  http.StatusUnprocessableEntity,
			wantVerdict: "rejected",
		},
		{
			name:       "missing sender",
			body:       `{"body":"hello"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "segment out of range",
			body:       `{"from":"+919800000001","body":"x","ref":"17","part":3,"total":2}`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &receiverStub{segVerdict: tt.segVerdict}
			e := echo.New()
			NewEchoHandler(r).Register(e.Group(""), apphttp.NewEchoErrorMiddleware())

			req := httptest.NewRequest(http.MethodPost, "/sms/inbound", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantVerdict != "" {
				var res map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.Equal(t, tt.wantVerdict, res["verdict"])
			}
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

type limiterStub struct {
	keys []string
}

func (l *limiterStub) Wait(_ context.Context, key string) error {
	l.keys = append(l.keys, key)
	return nil
}

func TestEchoRequestSenderGetter(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantKey string
	}{
		{
			name:    "keyed by sender phone",
			body:    `{"from":" +919800000001 ","body":"hello"}`,
			wantKey: "+919800000001",
		},
		{
			name:    "no sender falls back to client address",
			body:    `{"body":"hello"}`,
			wantKey: "192.0.2.7",
		},
		{
			name:    "not json falls back to client address",
			body:    `from=+919800000001`,
			wantKey: "192.0.2.7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &receiverStub{}
			limiter := &limiterStub{}
			e := echo.New()
			NewEchoHandler(r).Register(e.Group(""),
				apphttp.NewEchoErrorMiddleware(),
				apphttp.NewEchoRateLimiterMiddleware(limiter, EchoRequestSenderGetter))

			req := httptest.NewRequest(http.MethodPost, "/sms/inbound", strings.NewReader(tt.body))
			req.RemoteAddr = "192.0.2.7:4000"
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			e.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, []string{tt.wantKey}, limiter.keys)
		})
	}

	t.Run("body still reaches the handler", func(t *testing.T) {
		r := &receiverStub{}
		e := echo.New()
		NewEchoHandler(r).Register(e.Group(""),
			apphttp.NewEchoErrorMiddleware(),
			apphttp.NewEchoRateLimiterMiddleware(&limiterStub{}, EchoRequestSenderGetter))

		req := httptest.NewRequest(http.MethodPost, "/sms/inbound", strings.NewReader(`{"from":"+919800000001","body":"OPPAM:Lunch"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, r.msgs, 1)
		assert.Equal(t, "+919800000001", r.msgs[0].From)
		assert.Equal(t, "OPPAM:Lunch", r.msgs[0].Body)
	})
}
