package crawler

import (
	"strings"

	"github.com/yanrbts/wscan/httpclient"
)

// taskState is the per-URL task record §4.3 step 3 allocates: a growable
// body buffer and the observed Content-Type. Go's append already gives the
// buffer the geometric "doubling capacity on demand" growth the spec
// describes by hand.
type taskState struct {
	cr          *Crawler
	url         string
	depth       int
	contentType string
	buf         []byte
}

// onHeader implements §4.3's header_cb: detects and stores the
// Content-Type header's value, case-insensitive name match.
func (t *taskState) onHeader(line string, user any) {
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	if strings.EqualFold(strings.TrimSpace(name), "Content-Type") {
		t.contentType = strings.TrimSpace(value)
	}
}

// onData implements §4.3's data_cb: appends bytes to the task's buffer,
// truncating at MaxPageSize when the crawler was configured with one.
func (t *taskState) onData(data []byte, user any) {
	if t.cr.cfg.MaxPageSize > 0 {
		remaining := t.cr.cfg.MaxPageSize - len(t.buf)
		if remaining <= 0 {
			return
		}
		if len(data) > remaining {
			data = data[:remaining]
		}
	}
	t.buf = append(t.buf, data...)
}

// onComplete implements §4.3's complete_cb.
func (t *taskState) onComplete(handle *httpclient.RequestHandle, httpStatus, transportResult int, user any) {
	t.cr.completeTask(t, httpStatus, transportResult)
}
