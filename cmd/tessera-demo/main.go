package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/korhul/tessera/audio"
	"github.com/korhul/tessera/config"
	"github.com/korhul/tessera/core"
	"github.com/korhul/tessera/engine"
	"github.com/korhul/tessera/geom"
	"github.com/korhul/tessera/render"
)

var configFlag = flag.String("config", "tessera-demo.toml", "Config file path (TOML, optional)")

// mover is a bouncing shape: each tick it advances by its velocity and
// reverses on contact with a solid shape
type mover struct {
	engine.NopBehavior
	shape    *engine.Shape
	velocity geom.Vec
	world    geom.Rect
	player   *audio.Player
}

func (m *mover) OnRemoved(s *engine.State) {
	m.shape.SetRole(engine.RoleLocator, false)
	m.shape.SetRole(engine.RoleOverlap, false)
}

func (m *mover) OnTick(s *engine.State) {
	next := m.shape.Bounds().Translate(m.velocity)

	bounced := false
	if next.Left < m.world.Left || next.Right > m.world.Right {
		m.velocity[0] = -m.velocity[0]
		bounced = true
	}
	if next.Top < m.world.Top || next.Bottom > m.world.Bottom {
		m.velocity[1] = -m.velocity[1]
		bounced = true
	}
	if !bounced {
		for _, hit := range s.Index().Query(engine.RoleSolid, next) {
			if hit != m.shape {
				m.velocity[0] = -m.velocity[0]
				m.velocity[1] = -m.velocity[1]
				bounced = true
				break
			}
		}
	}
	if bounced && m.player != nil {
		m.player.PlayBlip(300 + rand.Float64()*500)
	}
	m.shape.Translate(m.velocity)
}

// spawner drops a new mover into the state on a repeating timer
type spawner struct {
	engine.NopBehavior
	node   *engine.Node
	state  *engine.State
	world  geom.Rect
	player *audio.Player
	ev     *engine.TimedEvent
	log    *logrus.Logger
}

func newSpawner(world geom.Rect, player *audio.Player, log *logrus.Logger) *engine.Node {
	sp := &spawner{world: world, player: player, log: log}
	sp.node = engine.NewNode(sp)
	sp.ev = engine.NewTimedEvent(sp.spawn)
	return sp.node
}

func (sp *spawner) OnAdded(s *engine.State) {
	sp.state = s
	sp.node.SetTimer(sp.ev, 120)
}

func (sp *spawner) spawn() {
	addMover(sp.state, sp.world, sp.player, glyphStyles[rand.Intn(len(glyphStyles))])
	sp.log.WithField("movers", sp.state.Nodes().Len()-1).Debug("spawned mover")
	sp.node.SetTimer(sp.ev, 120)
}

var glyphStyles = []render.Cell{
	{Rune: 'o', Style: tcell.StyleDefault.Foreground(tcell.ColorGreen)},
	{Rune: '*', Style: tcell.StyleDefault.Foreground(tcell.ColorYellow)},
	{Rune: '+', Style: tcell.StyleDefault.Foreground(tcell.ColorTeal)},
	{Rune: '@', Style: tcell.StyleDefault.Foreground(tcell.ColorRed)},
}

func addMover(s *engine.State, world geom.Rect, player *audio.Player, cell render.Cell) *engine.Node {
	x := world.Left + rand.Float32()*world.Width()
	y := world.Top + rand.Float32()*world.Height()

	sh := s.Index().NewShape(geom.CenteredRect(geom.Vec{x, y}, 1, 1))
	sh.Data = cell
	sh.SetRole(engine.RoleLocator, true)
	sh.SetRole(engine.RoleOverlap, true)

	m := &mover{
		shape:    sh,
		velocity: geom.Vec{rand.Float32()*0.6 - 0.3, rand.Float32()*0.6 - 0.3},
		world:    world,
		player:   player,
	}
	node := engine.NewNode(m)
	s.Nodes().Add(node)
	return node
}

// addWall registers a stationary solid strip
func addWall(s *engine.State, bounds geom.Rect) {
	sh := s.Index().NewShape(bounds)
	sh.Data = render.Cell{Rune: '▒', Style: tcell.StyleDefault.Foreground(tcell.ColorGray)}
	sh.SetRole(engine.RoleSolid, true)
	sh.SetRole(engine.RoleLocator, true)
	sh.SetDrawLayer(-1)
}

func main() {
	// Panic recovery: ensure terminal is reset even if the demo crashes
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := logrus.New()
	if f, err := os.OpenFile(cfg.Diagnostics.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}
	log.SetLevel(logrus.DebugLevel)

	if err := core.InitReporting(cfg.Diagnostics.SentryDSN); err != nil {
		log.WithError(err).Warn("crash reporting disabled")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	core.SetCleanup(screen.Fini)

	var player *audio.Player
	if !cfg.Audio.Mute {
		player = audio.NewPlayer()
		if err := player.Initialize(); err != nil {
			log.WithError(err).Warn("audio unavailable, continuing silent")
			player = nil
		} else {
			defer player.Cleanup()
		}
	}

	w, h := screen.Size()
	world := geom.NewRect(0, 0, float32(w), float32(h))

	state := engine.NewState(cfg.Engine.ChunkWidth, cfg.Engine.ChunkHeight)
	state.SetFrameTime(1.0 / float64(cfg.Engine.FPS))
	state.SetActive(true)

	viewport := engine.NewViewport(0, 0, w, h, world.Width(), world.Height())
	state.SetViewport(0, viewport)

	// Border walls
	addWall(state, geom.NewRect(world.Left, world.Top, world.Width(), 1))
	addWall(state, geom.NewRect(world.Left, world.Bottom-1, world.Width(), 1))
	addWall(state, geom.NewRect(world.Left, world.Top, 1, world.Height()))
	addWall(state, geom.NewRect(world.Right-1, world.Top, 1, world.Height()))

	inner := geom.Rect{Left: world.Left + 2, Top: world.Top + 2, Right: world.Right - 2, Bottom: world.Bottom - 2}
	for i := 0; i < cfg.Demo.Movers; i++ {
		addMover(state, inner, player, glyphStyles[i%len(glyphStyles)])
	}
	state.Nodes().Add(newSpawner(inner, player, log))

	renderer := render.NewScreenRenderer(screen)

	log.WithFields(logrus.Fields{
		"fps":    cfg.Engine.FPS,
		"chunk":  cfg.Engine.ChunkWidth,
		"movers": cfg.Demo.Movers,
	}).Info("demo started")

	// Input polling uses a crash-safe goroutine as it blocks on the
	// terminal directly
	eventChan := make(chan tcell.Event, 64)
	core.Go(func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	})

	frameTicker := time.NewTicker(time.Second / time.Duration(cfg.Engine.FPS))
	defer frameTicker.Stop()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			switch tev := ev.(type) {
			case *tcell.EventKey:
				if tev.Key() == tcell.KeyEscape || tev.Key() == tcell.KeyCtrlC || tev.Rune() == 'q' {
					log.WithFields(logrus.Fields{
						"ticks":  state.TickCount,
						"frames": state.FrameCount,
					}).Info("demo stopped")
					return
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case <-frameTicker.C:
			now := time.Now()
			dt := now.Sub(last).Seconds()
			last = now

			state.AdvanceFrame(dt)
			renderer.Frame(state)
		}
	}
}
