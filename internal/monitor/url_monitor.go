package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	customerrors "github.com/axellelanca/pitico/internal/errors"
	"github.com/axellelanca/pitico/internal/models"
)

// Result is the reachability of one stored URL.
type Result struct {
	Record     models.URL
	Accessible bool
	StatusCode int
	Err        error
}

// Checker probes the redirect targets of stored URLs.
// It runs on demand only, there is no background loop.
type Checker struct {
	httpClient  *http.Client
	timeout     time.Duration
	concurrency int
	logger      *logrus.Entry
}

// NewChecker creates a Checker issuing at most concurrency requests at a time,
// each bounded by timeout.
func NewChecker(timeout time.Duration, concurrency int, logger *logrus.Logger) *Checker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Checker{
		// Redirects are followed: a target answering 301 -> 200 is accessible.
		httpClient:  &http.Client{Timeout: timeout},
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger.WithField("module", "monitor"),
	}
}

// CheckAll probes every record and returns the results in input order.
func (m *Checker) CheckAll(ctx context.Context, records []models.URL) []Result {
	m.logger.Infof("Starting status verification of %d URL(s)...", len(records))

	results := make([]Result, len(records))
	sem := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup

	for i := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = m.check(ctx, records[i])
		}(i)
	}
	wg.Wait()

	m.logger.Info("URL status verification completed.")
	return results
}

// check performs an HTTP HEAD request against the redirect target of rec.
// 2xx and 3xx answers count as accessible.
func (m *Checker) check(ctx context.Context, rec models.URL) Result {
	res := Result{Record: rec}
	target := rec.RedirectTarget()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		res.Err = customerrors.ErrURLCheckFailed{URL: target, Reason: err.Error()}
		m.logger.WithError(err).Warnf("Error creating request for %s", target)
		return res
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		res.Err = customerrors.ErrURLCheckFailed{URL: target, Reason: err.Error()}
		m.logger.WithError(err).Warnf("Error accessing %s", target)
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.Accessible = resp.StatusCode >= 200 && resp.StatusCode < 400
	m.logger.WithField("alias", rec.Alias).Debugf("%s is %s (%d)", target, FormatState(res.Accessible), resp.StatusCode)
	return res
}

// FormatState is a utility function to make the state more readable.
func FormatState(accessible bool) string {
	if accessible {
		return "ACCESSIBLE"
	}
	return "INACCESSIBLE"
}
