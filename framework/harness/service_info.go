package harness

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/conduit-qa/conduit-test-harness/framework/api"
)

// ServiceInfo is status information about the API, gathered by the initial status query.
type ServiceInfo struct {
	APIURL string
	UIURL  string

	// StatusCode is the status returned by the status query.
	StatusCode int

	// Server is the value of the Server response header, if any.
	Server string

	// FullData is the entire response body received from the status query.
	FullData []byte
}

// Properties returns the service information in the form used for report metadata.
func (s ServiceInfo) Properties() map[string]string {
	ret := map[string]string{"apiURL": s.APIURL}
	if s.UIURL != "" {
		ret["uiURL"] = s.UIURL
	}
	if s.Server != "" {
		ret["server"] = s.Server
	}
	return ret
}

func queryServiceInfo(transport api.Transport, url string, timeout time.Duration, output io.Writer) (ServiceInfo, error) {
	fmt.Fprintf(output, "Connecting to API at %s", url)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := transport.Fetch(context.Background(), api.Request{Method: http.MethodGet, URL: url})
		if err == nil && !isServerError(resp.StatusCode) {
			fmt.Fprintln(output)
			if resp.StatusCode != http.StatusOK {
				return ServiceInfo{}, fmt.Errorf("API returned status code %d for %s", resp.StatusCode, url)
			}
			fmt.Fprintf(output, "Status query returned %d bytes\n", len(resp.Body))
			return ServiceInfo{
				StatusCode: resp.StatusCode,
				Server:     resp.Header.Get("Server"),
				FullData:   resp.Body,
			}, nil
		}
		if err == nil {
			err = fmt.Errorf("API returned status code %d", resp.StatusCode)
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return ServiceInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}
