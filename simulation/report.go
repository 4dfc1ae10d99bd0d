package simulation

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/spatialmath"
	"go.viam.com/docking/utils"
)

// Report summarizes a simulated run.
type Report struct {
	Result   docking.Result
	TimedOut bool
	Duration time.Duration

	Start     spatialmath.Pose2D
	Marker    spatialmath.Pose2D
	FinalPose spatialmath.Pose2D
	// DockError is the final pose expressed in the frame of the pose a perfect run ends at.
	DockError spatialmath.Pose2D

	Retries             int
	CorrectiveManeuvers int
	SignalsSent         int
	SignalsDropped      uint64

	GoalPoses []docking.GoalPose
	Statuses  []docking.DockingStatus
	Trace     []TracePoint
}

// DistanceTraveledMM returns the length of the driven trajectory.
func (r *Report) DistanceTraveledMM() float64 {
	if len(r.Trace) == 0 {
		return 0
	}
	steps := make([]float64, len(r.Trace))
	prev := r.Start
	for i, tp := range r.Trace {
		steps[i] = prev.DistanceTo(tp.Pose)
		prev = tp.Pose
	}
	return floats.Sum(steps)
}

// ClosestApproachMM returns the smallest distance between the robot and the marker.
func (r *Report) ClosestApproachMM() float64 {
	if len(r.Trace) == 0 {
		return r.Start.DistanceTo(r.Marker)
	}
	dists := make([]float64, len(r.Trace))
	for i, tp := range r.Trace {
		dists[i] = tp.Pose.DistanceTo(r.Marker)
	}
	return floats.Min(dists)
}

// MaxLiftHeightMM returns the highest lift position seen during the run.
func (r *Report) MaxLiftHeightMM() float64 {
	if len(r.Trace) == 0 {
		return 0
	}
	heights := make([]float64, len(r.Trace))
	for i, tp := range r.Trace {
		heights[i] = tp.LiftMM
	}
	return floats.Max(heights)
}

func (r *Report) String() string {
	return fmt.Sprintf(
		"result=%s timed_out=%t duration=%s retries=%d corrective=%d final=%s dock_error=(%.1fmm, %.1fmm, %.1fdeg) "+
			"traveled=%.0fmm signals=%d dropped=%d",
		r.Result, r.TimedOut, r.Duration, r.Retries, r.CorrectiveManeuvers, r.FinalPose,
		r.DockError.X, r.DockError.Y, utils.RadToDeg(r.DockError.Theta),
		r.DistanceTraveledMM(), r.SignalsSent, r.SignalsDropped,
	)
}

// Table renders the report as a table of metrics followed by the published statuses.
func (r *Report) Table() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Result", r.Result.String()},
		{"Timed out", r.TimedOut},
		{"Duration", r.Duration.String()},
		{"Final pose", r.FinalPose.String()},
		{"Dock error", fmt.Sprintf("X:%.1f, Y:%.1f, Theta:%.1f", r.DockError.X, r.DockError.Y, utils.RadToDeg(r.DockError.Theta))},
		{"Retries", r.Retries},
		{"Corrective maneuvers", r.CorrectiveManeuvers},
		{"Traveled (mm)", fmt.Sprintf("%.0f", r.DistanceTraveledMM())},
		{"Closest approach (mm)", fmt.Sprintf("%.0f", r.ClosestApproachMM())},
		{"Max lift height (mm)", fmt.Sprintf("%.0f", r.MaxLiftHeightMM())},
		{"Signals sent", r.SignalsSent},
		{"Signals dropped", r.SignalsDropped},
		{"Goal poses", len(r.GoalPoses)},
	})
	for _, st := range r.Statuses {
		t.AppendRow(table.Row{fmt.Sprintf("Status @ %dms", st.TimestampMS), st.Status.String()})
	}
	return t.Render()
}

// Plot renders the trajectory, the goal poses and the marker to an image file. The format
// follows the file extension.
func (r *Report) Plot(filePath string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Docking run: %s", r.Result)
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"
	p.Add(plotter.NewGrid())

	trajectory := make(plotter.XYs, 0, len(r.Trace)+1)
	trajectory = append(trajectory, plotter.XY{X: r.Start.X, Y: r.Start.Y})
	for _, tp := range r.Trace {
		trajectory = append(trajectory, plotter.XY{X: tp.Pose.X, Y: tp.Pose.Y})
	}
	line, err := plotter.NewLine(trajectory)
	if err != nil {
		return errors.Wrap(err, "cannot plot trajectory")
	}
	line.Color = color.RGBA{B: 200, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("robot", line)

	if len(r.GoalPoses) > 0 {
		goals := make(plotter.XYs, len(r.GoalPoses))
		for i, gp := range r.GoalPoses {
			goals[i] = plotter.XY{X: gp.XMM, Y: gp.YMM}
		}
		scatter, err := plotter.NewScatter(goals)
		if err != nil {
			return errors.Wrap(err, "cannot plot goal poses")
		}
		scatter.GlyphStyle.Color = color.RGBA{G: 150, A: 255}
		scatter.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(scatter)
		p.Legend.Add("goal", scatter)
	}

	// marker face, drawn across the marker heading
	const halfFaceMM = 15
	sin, cos := math.Sincos(r.Marker.Theta)
	face, err := plotter.NewLine(plotter.XYs{
		{X: r.Marker.X - halfFaceMM*sin, Y: r.Marker.Y + halfFaceMM*cos},
		{X: r.Marker.X + halfFaceMM*sin, Y: r.Marker.Y - halfFaceMM*cos},
	})
	if err != nil {
		return errors.Wrap(err, "cannot plot marker")
	}
	face.Color = color.RGBA{R: 200, A: 255}
	face.Width = vg.Points(3)
	p.Add(face)
	p.Legend.Add("marker", face)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(6*vg.Inch, 6*vg.Inch, filePath); err != nil {
		return errors.Wrapf(err, "cannot save plot to %q", filePath)
	}
	return nil
}
