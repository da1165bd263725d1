package pegas

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/soniakeys/meeus/julian"
)

// ExportConfig configures the trajectory streaming of a run. A zero value
// disables export entirely.
type ExportConfig struct {
	Filename string    // output path without extension
	AsCSV    bool
	Epoch    time.Time // wall-clock epoch of t=0, stamped as a Julian date
}

// IsUseless returns whether this config would export anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV || c.Filename == ""
}

// TrajPoint is one exported trajectory sample.
type TrajPoint struct {
	T          float64
	R, V       []float64
	Mass       float64
	F, Q       float64
	Pitch, Yaw float64
}

func trajPoint(st *loopState, i int) TrajPoint {
	return TrajPoint{
		T: st.P.T[i], R: st.P.R[i], V: st.P.V[i],
		Mass: st.mass[i], F: st.P.F[i], Q: st.P.Q[i],
		Pitch: st.P.Pitch[i], Yaw: st.P.Yaw[i],
	}
}

// StreamTrajectory consumes trajectory samples from the channel and writes
// them as CSV until the channel closes. Meant to be run in its own goroutine
// while the simulation fills the channel.
func StreamTrajectory(conf ExportConfig, points <-chan TrajPoint) {
	if conf.IsUseless() {
		for range points {
			// Drain so the sender never blocks.
		}
		return
	}
	f, err := os.Create(conf.Filename + ".csv")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create trajectory file: %s\n", err)
		for range points {
		}
		return
	}
	defer f.Close()
	epoch := conf.Epoch
	if epoch.IsZero() {
		epoch = time.Now().UTC()
	}
	jd0 := julian.TimeToJD(epoch)

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"jd", "t", "rx", "ry", "rz", "vx", "vy", "vz", "mass", "thrust", "q", "pitch", "yaw"})
	for pt := range points {
		row := []string{
			strconv.FormatFloat(jd0+pt.T/86400, 'f', 8, 64),
			fmtF(pt.T), fmtF(pt.R[0]), fmtF(pt.R[1]), fmtF(pt.R[2]),
			fmtF(pt.V[0]), fmtF(pt.V[1]), fmtF(pt.V[2]),
			fmtF(pt.Mass), fmtF(pt.F), fmtF(pt.Q), fmtF(pt.Pitch), fmtF(pt.Yaw),
		}
		if err := w.Write(row); err != nil {
			fmt.Fprintf(os.Stderr, "cannot write trajectory sample: %s\n", err)
			break
		}
	}
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
