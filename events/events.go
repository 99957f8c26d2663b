// path: events/events.go
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"mirqab/models"
)

const subjectReportCreated = "mirqab.report.created"

// Publisher fans out report lifecycle events over NATS. A nil Publisher is
// valid and publishes nothing, so event delivery stays optional.
type Publisher struct {
	nc  *nats.Conn
	log *logrus.Entry
}

// Connect dials the NATS server. An empty URL disables publishing.
func Connect(url string, log *logrus.Entry) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, log: log}, nil
}

// ReportCreated publishes the new report. Failures are logged, never fatal:
// event delivery is advisory and must not fail a submission.
func (p *Publisher) ReportCreated(r *models.Report) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		p.log.WithError(err).Warn("marshal report event")
		return
	}
	if err := p.nc.Publish(subjectReportCreated, data); err != nil {
		p.log.WithError(err).WithField("report_id", r.ReportID).Warn("publish report event")
	}
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	_ = p.nc.Drain()
}
