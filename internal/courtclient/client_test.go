package courtclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

const testBaseURL = "http://court.test"

var caseFound = `{"data":{"dlt_dspslGdsDspslObjctLst":[
	{"cortOfcNm":"서울중앙지방법원","csNo":"20240130012345","userCsNo":"2024타경12345",
	 "aeeEvlAmt":"120,000,000","lwsDspslPrc":84000000,"dspslDxdyYmd":"20240315"},
	{"cortOfcNm":"ignored","csNo":"other"}]}}`

var imageFound = `{"data":{"dlt_csPicLst":[{"picFileUrl":"/pgj/img/2024/12345_1.jpg","picTitlNm":"전경"}]}}`

func newTestClient() *Client {
	httpClient := &http.Client{}
	gock.InterceptClient(httpClient)
	return New(Config{BaseURL: testBaseURL, HTTPClient: httpClient})
}

func TestLookup(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).
		Post(caseDetailPath).
		MatchHeader("Content-Type", "application/json").
		MatchHeader("submissionid", caseSubmissionID).
		AddMatcher(bodyContains(`"cortOfcCd":"B000210"`, `"csNo":"2024타경12345"`)).
		Reply(200).
		JSON(caseFound)
	gock.New(testBaseURL).
		Post(caseImagePath).
		MatchHeader("submissionid", imageSubmissionID).
		AddMatcher(bodyContains(`"csNo":"20240130012345"`)).
		Reply(200).
		JSON(imageFound)

	res, err := newTestClient().Lookup(context.Background(), "B000210", "2024타경12345")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "B000210", res.CourtCode)
	assert.Equal(t, "서울중앙지방법원", res.CourtName)
	assert.Equal(t, "20240130012345", res.CaseNumber)
	assert.Equal(t, "2024타경12345", res.PrintCaseNumber)
	assert.Equal(t, int64(120000000), res.EvaluationAmount)
	assert.Equal(t, int64(84000000), res.LowestBidAmount)
	assert.Equal(t, int64(8400000), res.DepositAmount)
	assert.Equal(t, "2024-03-15", res.BidDate)
	assert.Equal(t, testBaseURL+"/pgj/img/2024/12345_1.jpg", res.ImageURL)
	assert.True(t, gock.IsDone())
}

func TestLookupImageFailureIsSwallowed(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).Post(caseDetailPath).Reply(200).JSON(caseFound)
	gock.New(testBaseURL).Post(caseImagePath).Reply(500)

	res, err := newTestClient().Lookup(context.Background(), "B000210", "2024타경12345")
	require.NoError(t, err)
	assert.Equal(t, int64(84000000), res.LowestBidAmount)
	assert.Empty(t, res.ImageURL)
}

func TestLookupImageTransportErrorIsSwallowed(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).Post(caseDetailPath).Reply(200).JSON(caseFound)
	gock.New(testBaseURL).Post(caseImagePath).ReplyError(context.DeadlineExceeded)

	res, err := newTestClient().Lookup(context.Background(), "B000210", "2024타경12345")
	require.NoError(t, err)
	assert.Empty(t, res.ImageURL)
}

func TestLookupImageEmptyList(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).Post(caseDetailPath).Reply(200).JSON(caseFound)
	gock.New(testBaseURL).Post(caseImagePath).Reply(200).JSON(`{"data":{"dlt_csPicLst":[]}}`)

	res, err := newTestClient().Lookup(context.Background(), "B000210", "2024타경12345")
	require.NoError(t, err)
	assert.Empty(t, res.ImageURL)
}

func TestLookupNotFound(t *testing.T) {
	bodies := []string{
		`{"data":{"dlt_dspslGdsDspslObjctLst":[]}}`,
		`{"data":null}`,
		`{}`,
	}

	for _, body := range bodies {
		gock.New(testBaseURL).Post(caseDetailPath).Reply(200).JSON(body)

		res, err := newTestClient().Lookup(context.Background(), "B000210", "2024타경99999")
		assert.Nil(t, res, body)
		assert.ErrorIs(t, err, ErrNotFound, body)

		var le *LookupError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, StageCase, le.Stage)

		gock.Off()
	}
}

func TestLookupUpstreamUnavailable(t *testing.T) {
	for _, code := range []int{500, 502, 503, 429} {
		gock.New(testBaseURL).Post(caseDetailPath).Reply(code)

		res, err := newTestClient().Lookup(context.Background(), "B000210", "2024타경12345")
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrUpstreamUnavailable, "status %d", code)

		gock.Off()
	}
}

func TestLookupConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, HTTPClient: &http.Client{Transport: &http.Transport{}}})

	_, err := c.Lookup(context.Background(), "B000210", "2024타경12345")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestLookupTimeout(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).Post(caseDetailPath).ReplyError(context.DeadlineExceeded)

	_, err := newTestClient().Lookup(context.Background(), "B000210", "2024타경12345")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestLookupTimeoutAgainstSlowServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(Config{
		BaseURL:     srv.URL,
		CaseTimeout: 50 * time.Millisecond,
		HTTPClient:  &http.Client{Transport: &http.Transport{}},
	})

	start := time.Now()
	_, err := c.Lookup(context.Background(), "B000210", "2024타경12345")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLookupMalformedResponse(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).Post(caseDetailPath).Reply(200).BodyString("<html>maintenance</html>")

	_, err := newTestClient().Lookup(context.Background(), "B000210", "2024타경12345")
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLookupUnexpectedClientStatus(t *testing.T) {
	defer gock.Off()

	gock.New(testBaseURL).Post(caseDetailPath).Reply(403)

	_, err := newTestClient().Lookup(context.Background(), "B000210", "2024타경12345")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestLookupEmptyInput(t *testing.T) {
	_, err := New(Config{BaseURL: testBaseURL}).Lookup(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-03-15", formatDate("20240315"))
	assert.Equal(t, "2024.03.15", formatDate("2024.03.15"))
}

// bodyContains matches requests whose body contains every fragment
func bodyContains(fragments ...string) gock.MatchFunc {
	return func(req *http.Request, _ *gock.Request) (bool, error) {
		if req.Body == nil {
			return false, nil
		}
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return false, err
		}
		req.Body = io.NopCloser(bytes.NewReader(b))

		for _, f := range fragments {
			if !strings.Contains(string(b), f) {
				return false, nil
			}
		}
		return true, nil
	}
}
