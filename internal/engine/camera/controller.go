package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/dungeonview/internal/engine/input"
)

// State is the follow controller state.
type State int

const (
	Idle State = iota
	UserManipulating
	ProgrammaticFollow
)

func (s State) String() string {
	switch s {
	case UserManipulating:
		return "user_manipulating"
	case ProgrammaticFollow:
		return "programmatic_follow"
	default:
		return "idle"
	}
}

// Thresholds decide when a manipulation counts as a real drag.
type Thresholds struct {
	Angle float32 // radians, azimuth or polar
	Pan   float32 // world units of target displacement
	Zoom  float32 // relative zoom change
}

// DefaultThresholds returns the thresholds used by the view.
func DefaultThresholds() Thresholds {
	return Thresholds{Angle: 0.01, Pan: 0.05, Zoom: 0.01}
}

// Controller drives an OrbitCamera from user input and keeps it following a
// tracked point when the user is not manipulating it.
type Controller struct {
	cam        *OrbitCamera
	thresholds Thresholds
	followRate float32

	state       State
	baseline    Pose
	hasBaseline bool
	dragged     bool

	tracked    mgl32.Vec3
	hasTracked bool

	viewportHeight int
	button         input.Button
}

// NewController wraps cam. followRate is the exponential blend rate per second.
func NewController(cam *OrbitCamera, thresholds Thresholds, followRate float32) *Controller {
	return &Controller{
		cam:            cam,
		thresholds:     thresholds,
		followRate:     followRate,
		viewportHeight: 1,
	}
}

// Camera returns the controlled camera.
func (c *Controller) Camera() *OrbitCamera { return c.cam }

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Begin starts a user manipulation and captures the baseline pose.
func (c *Controller) Begin() {
	c.state = UserManipulating
	c.baseline = c.cam.Pose()
	c.hasBaseline = true
	c.dragged = false
}

// Changed compares the current pose against the baseline and latches the
// drag flag once any threshold is exceeded.
func (c *Controller) Changed() {
	if !c.hasBaseline || c.dragged {
		return
	}
	now := c.cam.Pose()
	b := c.baseline
	t := c.thresholds

	switch {
	case absf(angleDelta(now.Azimuth, b.Azimuth)) > t.Angle,
		absf(now.Polar-b.Polar) > t.Angle,
		now.Target.Sub(b.Target).Len() > t.Pan,
		b.Zoom != 0 && absf(now.Zoom/b.Zoom-1) > t.Zoom:
		c.dragged = true
	}
}

// End finishes a manipulation. The drag flag stays latched until consumed.
func (c *Controller) End() {
	if c.state != UserManipulating {
		return
	}
	c.hasBaseline = false
	if c.hasTracked {
		c.state = ProgrammaticFollow
	} else {
		c.state = Idle
	}
}

// ConsumeDrag reports whether the last manipulation was a real drag and
// clears the flag.
func (c *Controller) ConsumeDrag() bool {
	d := c.dragged
	c.dragged = false
	return d
}

// Track sets the point the camera follows.
func (c *Controller) Track(p mgl32.Vec3) {
	c.tracked = p
	c.hasTracked = true
	if c.state == Idle {
		c.state = ProgrammaticFollow
	}
}

// SnapTo moves the target onto p immediately and tracks it.
func (c *Controller) SnapTo(p mgl32.Vec3) {
	c.cam.Target = p
	c.Track(p)
}

// SetViewport updates projection aspect and pan scaling.
func (c *Controller) SetViewport(width, height int) {
	c.cam.SetViewport(width, height)
	if height > 0 {
		c.viewportHeight = height
	}
}

// Update blends the target toward the tracked point. It does nothing while
// the user is manipulating the camera.
func (c *Controller) Update(dt float32) {
	if c.state != ProgrammaticFollow || !c.hasTracked || dt <= 0 {
		return
	}
	alpha := 1 - float32(math.Exp(float64(-c.followRate*dt)))
	c.cam.Target = c.cam.Target.Add(c.tracked.Sub(c.cam.Target).Mul(alpha))
}

// Rotate, Pan and Zoom apply a manipulation step and run change detection.
func (c *Controller) Rotate(dx, dy float32) {
	c.cam.Rotate(dx, dy)
	c.Changed()
}

func (c *Controller) Pan(dx, dy float32) {
	c.cam.Pan(dx, dy, c.viewportHeight)
	c.Changed()
}

func (c *Controller) Zoom(steps float32) {
	c.cam.ZoomBy(steps)
	c.Changed()
}

// HandleEvent routes pointer and wheel events: left drag orbits, right drag
// pans, the wheel zooms. Wheel steps count as a whole manipulation of their own.
func (c *Controller) HandleEvent(ev input.Event) {
	switch ev.Type {
	case input.EventPointerDown:
		if ev.Button == input.ButtonLeft || ev.Button == input.ButtonRight {
			c.button = ev.Button
			c.Begin()
		}
	case input.EventPointerMove:
		if c.state != UserManipulating {
			return
		}
		if c.button == input.ButtonRight {
			c.Pan(ev.DX, ev.DY)
		} else {
			c.Rotate(ev.DX, ev.DY)
		}
	case input.EventPointerUp:
		if ev.Button == c.button {
			c.button = input.ButtonNone
			c.End()
		}
	case input.EventWheel:
		if c.state == UserManipulating {
			c.Zoom(ev.Wheel)
			return
		}
		c.Begin()
		c.Zoom(ev.Wheel)
		c.End()
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// angleDelta returns a-b wrapped into [-pi, pi].
func angleDelta(a, b float32) float32 {
	d := math.Mod(float64(a-b), 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return float32(d)
}
