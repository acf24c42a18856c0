package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/indcloud/console/data"
	"github.com/pkg/errors"
)

const (
	aggregatePath = "/api/v1/analytics/aggregate"
	exportPath    = "/api/v1/export"
)

// export formats
const (
	ExportCSV  = "csv"
	ExportJSON = "json"
)

// Aggregate fetches one aggregated series
func (c *Client) Aggregate(ctx context.Context, q data.AggregateQuery) ([]data.AggregatePoint, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{
		"deviceId":    {q.DeviceID},
		"variable":    {q.Variable},
		"aggregation": {string(q.Aggregation)},
		"from":        {q.From.UTC().Format(time.RFC3339)},
		"to":          {q.To.UTC().Format(time.RFC3339)},
	}
	if q.Interval != "" {
		query.Set("interval", q.Interval)
	}

	var ret []data.AggregatePoint
	err := c.do(ctx, http.MethodGet, aggregatePath, query, nil, &ret)
	return ret, err
}

func rangeQuery(from, to time.Time) url.Values {
	return url.Values{
		"from": {from.UTC().Format(time.RFC3339)},
		"to":   {to.UTC().Format(time.RFC3339)},
	}
}

// ExportJSON fetches raw telemetry of a device for a time range
func (c *Client) ExportJSON(ctx context.Context, deviceID string, from, to time.Time) ([]data.TelemetryPoint, error) {
	var ret []data.TelemetryPoint
	err := c.do(ctx, http.MethodGet, exportPath+"/json/"+url.PathEscape(deviceID),
		rangeQuery(from, to), nil, &ret)
	return ret, err
}

// ExportCSV streams the CSV export of a device to w
func (c *Client) ExportCSV(ctx context.Context, deviceID string, from, to time.Time, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, exportPath+"/csv/"+url.PathEscape(deviceID),
		rangeQuery(from, to), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.Wrap(err, "error reading CSV export")
	}
	return n, nil
}

// ExportFileName returns the default file name for a device export
func ExportFileName(format, deviceID string) string {
	return fmt.Sprintf("telemetry-%v.%v", deviceID, format)
}

// Progress is called periodically during a download with the completed
// fraction and the transfer rate in bytes per second
type Progress func(fraction, bytesPerSecond float64)

// DownloadExport downloads a CSV or JSON export to dst, a file or a directory.
// The path of the written file is returned.
func (c *Client) DownloadExport(ctx context.Context, format, deviceID string, from, to time.Time,
	dst string, progress Progress) (string, error) {
	if format != ExportCSV && format != ExportJSON {
		return "", fmt.Errorf("unknown export format %q", format)
	}

	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		dst = filepath.Join(dst, ExportFileName(format, deviceID))
	}

	src := c.endpoint(exportPath+"/"+format+"/"+url.PathEscape(deviceID), rangeQuery(from, to))
	req, err := grab.NewRequest(dst, src)
	if err != nil {
		return "", errors.Wrap(err, "error creating export request")
	}
	req = req.WithContext(ctx)
	req.NoResume = true
	if token := c.Token(); token != "" {
		req.HTTPRequest.Header.Set("Authorization", "Bearer "+token)
	}

	gc := grab.NewClient()
	gc.UserAgent = "indcloud-console"
	resp := gc.Do(req)

	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()

done:
	for {
		select {
		case <-t.C:
			if progress != nil {
				progress(resp.Progress(), resp.BytesPerSecond())
			}
		case <-resp.Done:
			break done
		}
	}

	if err := resp.Err(); err != nil {
		return "", errors.Wrapf(err, "error downloading %v export", format)
	}
	if progress != nil {
		progress(1, resp.BytesPerSecond())
	}
	return resp.Filename, nil
}
