package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// CommandsHandled counts bot commands by command name.
	CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dosebot_commands_total",
		Help: "Number of bot commands handled, by command.",
	}, []string{"command"})

	// DoseMarks counts dose status writes by resulting status.
	DoseMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dosebot_dose_marks_total",
		Help: "Number of dose status writes, by resulting status.",
	}, []string{"status"})

	// CorruptRecordsSkipped counts stored rows skipped because their
	// schedule or status could not be interpreted.
	CorruptRecordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dosebot_corrupt_records_skipped_total",
		Help: "Number of stored records skipped as unreadable during analytics.",
	})
)

// Serve runs the Prometheus metrics endpoint on its own port. It blocks, so
// it should be launched in a separate goroutine.
func Serve(port string, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Infof("Metrics server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Errorf("Metrics server stopped: %v", err)
	}
}
