package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dailyexpense/internal/core"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestAmountFieldAcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		raw  string
		want amountField
	}{
		{`{"amount":12.5}`, "12.5"},
		{`{"amount":"12,50"}`, "12,50"},
		{`{"amount":null}`, ""},
		{`{}`, ""},
	}
	for _, tt := range tests {
		var req transactionRequest
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &req), tt.raw)
		require.Equal(t, tt.want, req.Amount, tt.raw)
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 7, 1, 15, 4, 5, 0, time.Local)

	got, err := parseDate("", now)
	require.NoError(t, err)
	require.Equal(t, now, got)

	got, err = parseDate("2024-02-29", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local), got)

	got, err = parseDate("2024-02-29T10:00:00Z", now)
	require.NoError(t, err)
	require.True(t, got.Equal(time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)))

	got, err = parseDate("1709200800000", now)
	require.NoError(t, err)
	require.Equal(t, int64(1709200800000), got.UnixMilli())

	_, err = parseDate("yesterday", now)
	require.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestTransactionRequestResolvesKeys(t *testing.T) {
	req := transactionRequest{
		Category:    "gadgets",
		Description: "Cable\x00",
		Amount:      "3",
		Type:        "whatever",
	}
	tx, err := req.toTransaction(time.Now())
	require.NoError(t, err)
	require.Equal(t, core.Others, tx.Category)
	require.Equal(t, core.Expense, tx.Type)
	require.Equal(t, "Cable", tx.Description)

	_, err = transactionRequest{Description: "x", Amount: "3"}.toTransaction(time.Now())
	require.ErrorIs(t, err, core.ErrEmptyCategory)
}

func TestParseTransactionFilter(t *testing.T) {
	f, err := parseTransactionFilter(url.Values{
		"type":     {"income"},
		"category": {"salary"},
		"q":        {"  bonus "},
		"day":      {"2024-01-31"},
	})
	require.NoError(t, err)
	require.Equal(t, core.Income, f.Type)
	require.Equal(t, core.Salary, f.Category)
	require.Equal(t, "bonus", f.Query)
	require.Equal(t, 31, f.Day.Day())

	_, err = parseTransactionFilter(url.Values{"category": {"pets"}})
	require.True(t, errors.Is(err, errBadRequest))
}

func TestParsePeriodDefaults(t *testing.T) {
	now := time.Date(2024, 3, 3, 9, 0, 0, 0, time.Local)
	p, at, err := parsePeriod(url.Values{}, now)
	require.NoError(t, err)
	require.Equal(t, core.Today, p)
	require.Equal(t, now, at)

	p, _, err = parsePeriod(url.Values{"period": {"yearly"}}, now)
	require.NoError(t, err)
	require.Equal(t, core.Yearly, p)
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct client", "203.0.113.9:5000", "", "203.0.113.9"},
		{"untrusted proxy header ignored", "203.0.113.9:5000", "198.51.100.1", "203.0.113.9"},
		{"trusted proxy", "10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy bad header", "127.0.0.1:5000", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			require.Equal(t, tt.want, extractClientIP(r))
		})
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.stop()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	require.True(t, rl.allow("a"))
	require.True(t, rl.allow("a"))
	require.False(t, rl.allow("a"))
	require.True(t, rl.allow("b"), "limits are per client")

	now = now.Add(time.Minute)
	require.True(t, rl.allow("a"))

	now = now.Add(11 * time.Minute)
	require.Equal(t, 2, rl.dropStale())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{errors.Join(errors.New("ctx"), core.ErrNotFound), http.StatusNotFound},
		{errBadRequest, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := statusFor(tt.err)
		require.Equal(t, tt.want, got, tt.err.Error())
	}
}
