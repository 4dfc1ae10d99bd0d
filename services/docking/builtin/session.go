package builtin

import (
	"github.com/google/uuid"

	"go.viam.com/docking/components/base"
	"go.viam.com/docking/motionplan/path"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/spatialmath"
)

// session is the state of one docking attempt, from start until its terminal result.
type session struct {
	id          uuid.UUID
	mode        docking.Mode
	failure     docking.FailureState
	method      docking.Method
	params      docking.StartParams
	fixedOffset bool

	numRetries    int
	numCorrective int

	pastPointOfNoReturn bool
	markerOutOfFOV      bool
	// recency clock for the give-up and lost-target timeouts
	lastSampleTimeMS uint32
	// capture time of lastSample
	lastSampleAtMS uint32
	lastSample     docking.ErrorSignal
	haveSample     bool
	numLargeJumps  int

	markerPose       spatialmath.Pose2D
	haveMarker       bool
	lastInViewMarker spatialmath.Pose2D
	markerHeightMM   float64
	elevated         bool
	dockPose         spatialmath.Pose2D

	plan         path.Path
	pathInFlight bool

	backingOffRef spatialmath.Pose2D
	lift          *liftRamp
	savedGains    base.Gains
}

func newSession(method docking.Method, params docking.StartParams, fixedOffset bool, nowMS uint32) *session {
	return &session{
		id:               uuid.New(),
		mode:             docking.ModeLookingForBlock,
		failure:          docking.FailureNone,
		method:           method,
		params:           params,
		fixedOffset:      fixedOffset,
		lastSampleTimeMS: nowMS,
	}
}

// recordSample refreshes the recency clock and the point of no return from an accepted
// signal captured at capturedMS.
func (s *session) recordSample(signal docking.ErrorSignal, capturedMS uint32) {
	s.lastSample = signal
	s.haveSample = true
	s.lastSampleAtMS = capturedMS
	if docking.ElapsedMS(capturedMS, s.lastSampleTimeMS) > 0 {
		s.lastSampleTimeMS = capturedMS
	}
	s.updatePointOfNoReturn(signal.Distance())
}

// updatePointOfNoReturn re-evaluates the point of no return against a distance estimate to
// the marker.
func (s *session) updatePointOfNoReturn(distanceMM float64) {
	if s.params.PointOfNoReturnMM > 0 {
		s.pastPointOfNoReturn = distanceMM < s.params.PointOfNoReturnMM
	}
}

// returnToLooking drops the current path and waits for the next signal.
func (s *session) returnToLooking() {
	s.mode = docking.ModeLookingForBlock
	s.failure = docking.FailureNone
	s.pathInFlight = false
	s.plan.Clear()
	s.markerOutOfFOV = false
	s.numLargeJumps = 0
	s.lift = nil
}

func (s *session) successResult() docking.Result {
	if s.numRetries > 0 {
		return docking.ResultSuccessRetries
	}
	return docking.ResultSuccess
}
