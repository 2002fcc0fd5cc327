// Package registry looks up nonprofits in the public IRS-derived registry
// served by ProPublica's Nonprofit Explorer API.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/rongwang/deductible-server/internal/metrics"
	"github.com/rongwang/deductible-server/internal/models"
)

const DefaultBaseURL = "https://projects.propublica.org/nonprofits/api/v2"

// Organization is the subset of a registry record used to enrich a charity.
type Organization struct {
	EIN            string  `json:"ein"`
	Name           string  `json:"name"`
	Street         *string `json:"street,omitempty"`
	City           *string `json:"city,omitempty"`
	State          *string `json:"state,omitempty"`
	Zip            *string `json:"zip,omitempty"`
	Category       *string `json:"category,omitempty"`
	Status         *string `json:"status,omitempty"`
	Classification *string `json:"classification,omitempty"`
	NonprofitType  *string `json:"nonprofitType,omitempty"`
	Deductibility  *string `json:"deductibility,omitempty"`
}

// SearchResult is one hit of a free-text search.
type SearchResult struct {
	EIN      string `json:"ein"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Client talks to the registry with bounded connect and read timeouts.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
	tries   uint
}

// NewClient creates a registry client. timeout bounds each attempt end to
// end; the dial itself gets at most half of it.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: timeout / 2}).DialContext,
		TLSHandshakeTimeout:   timeout / 2,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   4,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: transport},
		log:     log.With().Str("component", "registry").Logger(),
		tries:   3,
	}
}

var errNotFound = errors.New("organization not found")

// Lookup fetches one organization by EIN. Unknown EINs return
// models.ErrNotFound, and exhausted timeouts return models.ErrUpstreamTimeout.
func (c *Client) Lookup(ctx context.Context, ein string) (*Organization, error) {
	digits := einDigits(ein)
	if len(digits) != 9 {
		return nil, fmt.Errorf("%w: EIN must have 9 digits", models.ErrInvalidInput)
	}

	var body struct {
		Organization struct {
			EIN               json.Number `json:"ein"`
			Name              string      `json:"name"`
			Address           string      `json:"address"`
			City              string      `json:"city"`
			State             string      `json:"state"`
			Zipcode           string      `json:"zipcode"`
			NTEECode          string      `json:"ntee_code"`
			SubsectionCode    int         `json:"subsection_code"`
			ClassificationCds string      `json:"classification_codes"`
			DeductibilityCode int         `json:"deductibility_code"`
			ExemptStatusCode  int         `json:"exempt_organization_status_code"`
		} `json:"organization"`
	}
	if err := c.get(ctx, "/organizations/"+digits+".json", &body); err != nil {
		if errors.Is(err, errNotFound) {
			metrics.RegistryLookupsTotal.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("EIN %s: %w", digits, models.ErrNotFound)
		}
		return nil, err
	}
	metrics.RegistryLookupsTotal.WithLabelValues("ok").Inc()

	o := body.Organization
	org := &Organization{
		EIN:            formatEIN(digits),
		Name:           o.Name,
		Street:         optional(o.Address),
		City:           optional(o.City),
		State:          optional(o.State),
		Zip:            optional(o.Zipcode),
		Category:       optional(nteeCategory(o.NTEECode)),
		Status:         optional(exemptStatus(o.ExemptStatusCode)),
		Classification: optional(o.ClassificationCds),
		NonprofitType:  optional(subsection(o.SubsectionCode)),
		Deductibility:  optional(deductibility(o.DeductibilityCode)),
	}
	return org, nil
}

// Search runs a free-text query and returns the first page of hits.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	var body struct {
		Organizations []struct {
			EIN   json.Number `json:"ein"`
			Name  string      `json:"name"`
			City  string      `json:"city"`
			State string      `json:"state"`
		} `json:"organizations"`
	}
	err := c.get(ctx, "/search.json?q="+url.QueryEscape(query), &body)
	if errors.Is(err, errNotFound) {
		return []SearchResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	metrics.RegistryLookupsTotal.WithLabelValues("ok").Inc()

	results := make([]SearchResult, 0, len(body.Organizations))
	for _, o := range body.Organizations {
		location := strings.Trim(o.City+", "+o.State, ", ")
		if location == "" {
			location = "Unknown"
		}
		results = append(results, SearchResult{
			EIN:      formatEIN(padEIN(o.EIN.String())),
			Name:     o.Name,
			Location: location,
		})
	}
	return results, nil
}

// get fetches path and decodes the JSON body into out, retrying transient
// failures with exponential backoff.
func (c *Client) get(ctx context.Context, path string, out any) error {
	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "DeductibleTracker/1.0")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return struct{}{}, backoff.Permanent(errNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return struct{}{}, fmt.Errorf("registry returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return struct{}{}, backoff.Permanent(fmt.Errorf("registry returned %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("decode registry response: %w", err))
		}
		return struct{}{}, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.tries),
	)
	if err == nil || errors.Is(err, errNotFound) {
		return err
	}

	if isTimeout(err) {
		metrics.RegistryLookupsTotal.WithLabelValues("timeout").Inc()
		c.log.Warn().Err(err).Str("path", path).Msg("registry timed out")
		return fmt.Errorf("%w: %v", models.ErrUpstreamTimeout, err)
	}
	metrics.RegistryLookupsTotal.WithLabelValues("error").Inc()
	c.log.Error().Err(err).Str("path", path).Msg("registry request failed")
	return fmt.Errorf("registry request: %w", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// einDigits strips everything but digits from a user-supplied EIN.
func einDigits(ein string) string {
	var b strings.Builder
	for _, r := range ein {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// padEIN restores the leading zeros the API drops when it returns an EIN as
// a JSON integer.
func padEIN(ein string) string {
	digits := einDigits(ein)
	if digits == "" || len(digits) >= 9 {
		return digits
	}
	return strings.Repeat("0", 9-len(digits)) + digits
}

func formatEIN(digits string) string {
	if len(digits) != 9 {
		return digits
	}
	return digits[:2] + "-" + digits[2:]
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func subsection(code int) string {
	if code == 0 {
		return ""
	}
	return "501(c)(" + strconv.Itoa(code) + ")"
}

func deductibility(code int) string {
	switch code {
	case 1:
		return "Contributions are deductible"
	case 2:
		return "Contributions are not deductible"
	case 4:
		return "Contributions are deductible by treaty"
	default:
		return ""
	}
}

func exemptStatus(code int) string {
	switch code {
	case 1:
		return "Unconditional exemption"
	case 2:
		return "Conditional exemption"
	case 12:
		return "Trust described in section 4947(a)(2)"
	case 25:
		return "Organization terminating its private foundation status"
	default:
		return ""
	}
}

// nteeCategory maps the major group letter of an NTEE code.
func nteeCategory(code string) string {
	if code == "" {
		return ""
	}
	groups := map[byte]string{
		'A': "Arts, Culture & Humanities",
		'B': "Education",
		'C': "Environment",
		'D': "Animal-Related",
		'E': "Health Care",
		'F': "Mental Health & Crisis Intervention",
		'G': "Voluntary Health Associations & Medical Disciplines",
		'H': "Medical Research",
		'I': "Crime & Legal-Related",
		'J': "Employment",
		'K': "Food, Agriculture & Nutrition",
		'L': "Housing & Shelter",
		'M': "Public Safety, Disaster Preparedness & Relief",
		'N': "Recreation & Sports",
		'O': "Youth Development",
		'P': "Human Services",
		'Q': "International, Foreign Affairs & National Security",
		'R': "Civil Rights, Social Action & Advocacy",
		'S': "Community Improvement & Capacity Building",
		'T': "Philanthropy, Voluntarism & Grantmaking Foundations",
		'U': "Science & Technology",
		'V': "Social Science",
		'W': "Public & Societal Benefit",
		'X': "Religion-Related",
		'Y': "Mutual & Membership Benefit",
		'Z': "Unknown",
	}
	return groups[strings.ToUpper(code)[0]]
}
