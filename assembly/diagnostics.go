package assembly

import (
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// logReadDiagnostics reports the spread of overlap scores across every
// candidate a read() call considered, so a caller watching logs can tell a
// confident read (tight, high-mean scores) from a contested one.
func logReadDiagnostics(scores []float64) {
	mean, std := stat.MeanStdDev(scores, nil)
	log.Debug().
		Int("candidates", len(scores)).
		Float64("mean_overlap", mean).
		Float64("stddev_overlap", std).
		Msg("read candidate scores")
}
