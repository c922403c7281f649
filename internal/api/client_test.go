package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

type captured struct {
	method    string
	path      string
	body      map[string]any
	requestID string
	auth      string
}

type recorder struct {
	mu    sync.Mutex
	calls []captured
}

func (r *recorder) all() []captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]captured(nil), r.calls...)
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{
			method:    r.Method,
			path:      r.URL.Path,
			requestID: r.Header.Get(RequestIDHeader),
			auth:      r.Header.Get("Authorization"),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &c.body))
		}
		rec.mu.Lock()
		rec.calls = append(rec.calls, c)
		rec.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := New(srv.URL+"/", WithToken("secret"))
	require.NoError(t, err)
	return client, rec
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:5000")
	assert.Error(t, err)
}

func TestListLedgers(t *testing.T) {
	client, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"ledger_code":"L100","ledger_name":"Freight Income","report":"PL"},{"ledger_code":1000000,"ledger_name":"Cash"}]`)
	})

	records, err := client.ListLedgers(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "L100", records[0].String("ledger_code"))
	assert.Equal(t, "PL", records[0].String("report"))
	assert.Equal(t, "1000000", records[1].String("ledger_code"))

	require.Len(t, calls.all(), 1)
	call := calls.all()[0]
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/ledgers", call.path)
	assert.NotEmpty(t, call.requestID)
	assert.Equal(t, "Bearer secret", call.auth)
}

func TestListAcceptsDataEnvelope(t *testing.T) {
	client, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":[{"main_group_code":"MG01","main_group_name":"Income"}]}`)
	})

	records, err := client.ListMainGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "MG01", records[0].String("main_group_code"))
	assert.Equal(t, "/main_groups", calls.all()[0].path)
}

func TestListActiveConsolidationLinksFiltersInactive(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[
			{"serial_no":1,"ledger_code":"L100","sub_group_code":null,"main_group_code":"MG01","status":"active"},
			{"serial_no":2,"ledger_code":"L200","sub_group_code":"SG01","main_group_code":null,"status":"inactive"},
			{"serial_no":"3","ledger_code":"L300","sub_group_code":"SG02","main_group_code":"","status":"Active"}
		]`)
	})

	links, err := client.ListActiveConsolidationLinks(context.Background())
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "L100", links[0].LedgerCode)
	assert.Nil(t, links[0].SubGroupCode)
	assert.Equal(t, "MG01", types.Deref(links[0].MainGroupCode))
	assert.Equal(t, 3, links[1].SerialNo)
	assert.Nil(t, links[1].MainGroupCode)
}

func TestCreateMergeDemergePayloads(t *testing.T) {
	client, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/consolidated":
			writeJSON(w, http.StatusCreated, `{"id":7,"ledger_code":"L100"}`)
		default:
			writeJSON(w, http.StatusOK, `{"message":"ok"}`)
		}
	})

	mg := "MG01"
	link := types.ConsolidationLink{SerialNo: 1, LedgerCode: "L100", MainGroupCode: &mg, Status: types.StatusActive}

	created, err := client.CreateConsolidationLink(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, "7", created.String("id"))

	require.NoError(t, client.MergeLedgerWithGroups(context.Background(), link.MergeRequest()))
	require.NoError(t, client.DemergeLedger(context.Background(), "L100"))

	require.Len(t, calls.all(), 3)
	all := calls.all()
	create, merge, demerge := all[0], all[1], all[2]

	assert.Equal(t, "/consolidated", create.path)
	assert.Equal(t, map[string]any{
		"serial_no":       float64(1),
		"ledger_code":     "L100",
		"sub_group_code":  nil,
		"main_group_code": "MG01",
		"status":          "active",
	}, create.body)

	assert.Equal(t, "/ledgers/merge", merge.path)
	assert.Equal(t, map[string]any{
		"ledger_code":     "L100",
		"sub_group_code":  nil,
		"main_group_code": "MG01",
	}, merge.body)

	assert.Equal(t, "/ledgers/demerge", demerge.path)
	assert.Equal(t, map[string]any{"ledger_code": "L100"}, demerge.body)

	assert.NotEqual(t, create.requestID, merge.requestID)
}

func TestCreateWithUndecodableBodyCountsAsCreated(t *testing.T) {
	for name, body := range map[string]string{
		"plain text": "Created",
		"array":      `[1,2]`,
		"null":       "null",
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			client, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusCreated, body)
			})
			log, hook := test.NewNullLogger()
			WithLogger(log)(client)

			created, err := client.CreateConsolidationLink(context.Background(), types.ConsolidationLink{SerialNo: 1, LedgerCode: "L100"})
			require.NoError(t, err)
			assert.NotNil(t, created, "a 2xx create always yields a record")
			assert.Empty(t, created)
			assert.Len(t, calls.all(), 1)

			if body != "" {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
			}
		})
	}
}

func TestServerErrorMessageIsVerbatim(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"error":"Ledger L100 is already merged"}`)
	})

	err := client.MergeLedgerWithGroups(context.Background(), types.MergeRequest{LedgerCode: "L100"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Ledger L100 is already merged", apiErr.ServerMessage())
	assert.Equal(t, "merge ledger", apiErr.Op)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestServerErrorWithoutBodyFallsBackToStatusText(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.ListSubGroups(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Internal Server Error", apiErr.ServerMessage())
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := New(url)
	require.NoError(t, err)

	err = client.DemergeLedger(context.Background(), "L1")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.Status)
	assert.NotEmpty(t, apiErr.ServerMessage())
}

func TestGetConsolidationReport(t *testing.T) {
	client, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/consolidated/ledger/L100" {
			writeJSON(w, http.StatusOK, `[{"ledger_code":"L100","ledger_name":"Freight Income","main_group_code":"MG01","ledger_debit_credit":"Cr","ledger_trial_balance":"12,500.5","status":"active"}]`)
			return
		}
		writeJSON(w, http.StatusOK, `[]`)
	})

	report, err := client.GetConsolidationReport(context.Background(), "L100")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "Freight Income", report.LedgerName)
	assert.True(t, report.TrialBalance.Valid)
	assert.Equal(t, "12500.50", report.TrialBalance.String())

	report, err = client.GetConsolidationReport(context.Background(), "L999")
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, "/consolidated/ledger/L999", calls.all()[1].path)
}

func TestAmountTolerance(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"","b":null,"c":-42.1}`), &v))
	assert.False(t, v.A.Valid)
	assert.False(t, v.B.Valid)
	assert.Equal(t, "-42.10", v.C.String())

	assert.Error(t, json.Unmarshal([]byte(`{"a":"n/a"}`), &v))
}
