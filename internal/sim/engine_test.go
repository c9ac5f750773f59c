package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/config"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/ecs"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/galaxy"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/world"
)

const frame = 100 * time.Millisecond

// quietConfig disables every random transition so scenarios are scripted.
func quietConfig() config.SimulationConfig {
	c := config.DefaultSimulation()
	c.Seed = 1
	c.ActivationChance = 0
	c.DeactivationChance = 0
	c.MinLifetime = 1e9
	c.LifetimeRange = 0
	c.SupernovaChance = 0
	c.PropagationSpeed = 5
	c.MaxConnectionDistance = 20
	c.BirthReplacementRatio = 0
	return c
}

func newEngine(t *testing.T, cfg config.SimulationConfig) *Engine {
	t.Helper()
	e, err := New(cfg, WithLogger(zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func step(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.Update(frame)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := quietConfig()
	cfg.PropagationSpeed = 0
	_, err := New(cfg)
	var verr *config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("New err = %v, want *config.ValidationError", err)
	}
	if verr.Issues[0].Field != "propagation_speed" {
		t.Fatalf("issues = %v", verr.Issues)
	}
}

func TestHandshakeWaitsForRoundTrip(t *testing.T) {
	e := newEngine(t, quietConfig())
	a := e.SpawnStar(mgl64.Vec3{0, 0, 0}, -1)
	b := e.SpawnStar(mgl64.Vec3{10, 0, 0}, -1)
	if !e.Activate(a) || !e.Activate(b) {
		t.Fatal("activation failed")
	}

	step(e, 39) // t = 3.9s, round trip is 2*10/5 = 4s
	if got := e.Stats().Connections; got != 0 {
		t.Fatalf("connections at %v = %d, want 0", e.Now(), got)
	}
	step(e, 2) // t = 4.1s
	if got := e.Stats().Connections; got != 1 {
		t.Fatalf("connections at %v = %d, want 1", e.Now(), got)
	}
	c := e.Connections()[0]
	if c.CreatedAt != 4*time.Second {
		t.Fatalf("connection created at %v, want 4s", c.CreatedAt)
	}
	step(e, 50)
	if got := e.Stats().Connections; got != 1 {
		t.Fatalf("connections after settling = %d, want 1", got)
	}
}

func TestHandshakeRequiresBothEndpointsToWait(t *testing.T) {
	e := newEngine(t, quietConfig())
	a := e.SpawnStar(mgl64.Vec3{0, 0, 0}, -1)
	b := e.SpawnStar(mgl64.Vec3{10, 0, 0}, -1)
	e.Activate(a)
	step(e, 20) // a has waited 2s
	e.Activate(b)
	step(e, 39) // b has waited 3.9s
	if e.Stats().Connections != 0 {
		t.Fatal("connected before the later star completed its round trip")
	}
	step(e, 2)
	if e.Stats().Connections != 1 {
		t.Fatal("did not connect once both waited")
	}
}

func TestHandshakeRespectsMaxDistance(t *testing.T) {
	e := newEngine(t, quietConfig())
	a := e.SpawnStar(mgl64.Vec3{0, 0, 0}, -1)
	b := e.SpawnStar(mgl64.Vec3{25, 0, 0}, -1)
	e.Activate(a)
	e.Activate(b)
	step(e, 200)
	if e.Stats().Connections != 0 {
		t.Fatal("stars beyond max connection distance connected")
	}
}

func TestDustCloudBlocksHandshake(t *testing.T) {
	e := newEngine(t, quietConfig())
	a := e.SpawnStar(mgl64.Vec3{0, 0, 0}, -1)
	b := e.SpawnStar(mgl64.Vec3{10, 0, 0}, -1)
	e.AddCloud(mgl64.Vec3{5, 0, 0}, 5)
	e.Activate(a)
	e.Activate(b)
	for i := 0; i < 600; i++ {
		e.Update(frame)
		if e.Stats().Connections != 0 {
			t.Fatalf("connection formed through a dust cloud at %v", e.Now())
		}
	}
}

func TestCloudOffTheSegmentDoesNotBlock(t *testing.T) {
	e := newEngine(t, quietConfig())
	a := e.SpawnStar(mgl64.Vec3{0, 0, 0}, -1)
	b := e.SpawnStar(mgl64.Vec3{10, 0, 0}, -1)
	e.AddCloud(mgl64.Vec3{5, 8, 0}, 5)
	e.Activate(a)
	e.Activate(b)
	step(e, 41)
	if e.Stats().Connections != 1 {
		t.Fatal("cloud away from the segment blocked the connection")
	}
}

func TestCreateConnectionIsIdempotent(t *testing.T) {
	e := newEngine(t, quietConfig())
	a := e.SpawnStar(mgl64.Vec3{0, 0, 0}, -1)
	b := e.SpawnStar(mgl64.Vec3{1, 0, 0}, -1)
	if !e.CreateConnection(a, b) {
		t.Fatal("first create failed")
	}
	if e.CreateConnection(a, b) || e.CreateConnection(b, a) {
		t.Fatal("duplicate create succeeded")
	}
	if e.Stats().Connections != 1 {
		t.Fatalf("connections = %d", e.Stats().Connections)
	}
}

func TestDeactivationRemovesConnection(t *testing.T) {
	cfg := quietConfig()
	e := newEngine(t, cfg)
	a := e.SpawnStar(mgl64.Vec3{0, 0, 0}, -1)
	b := e.SpawnStar(mgl64.Vec3{10, 0, 0}, -1)
	e.Activate(a)
	e.Activate(b)
	step(e, 41)
	if e.Stats().Connections != 1 {
		t.Fatal("setup: no connection")
	}
	cfg.DeactivationChance = 1000
	if err := e.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	step(e, 1)
	if e.Stats().Active != 0 || e.Stats().Connections != 0 {
		t.Fatalf("stats after deactivation = %+v", e.Stats())
	}
	if e.Activate(a) {
		t.Fatal("spent star reactivated")
	}
}

func TestDeathRemovesOnlyStarAndItsConnections(t *testing.T) {
	e := newEngine(t, quietConfig())
	var ids []ecs.EntityID
	for i := 0; i < 5; i++ {
		id := e.SpawnStar(mgl64.Vec3{float64(i) * 100, 0, 0}, -1)
		e.Activate(id)
		ids = append(ids, id)
	}
	for i := 0; i+1 < len(ids); i++ {
		e.CreateConnection(ids[i], ids[i+1])
	}
	e.CreateConnection(ids[0], ids[4])
	step(e, 1)

	before := make(map[world.PairKey]bool)
	for _, c := range e.Connections() {
		before[c.Key()] = true
	}
	if len(before) != 5 {
		t.Fatalf("setup: %d connections", len(before))
	}

	var order []string
	event.Subscribe(e.Bus(), func(ev event.ConnectionRemoved) { order = append(order, "conn") })
	event.Subscribe(e.Bus(), func(ev event.StarDied) {
		if ev.StarID != ids[2] {
			t.Errorf("unexpected death %v", ev.StarID)
		}
		order = append(order, "star")
	})

	if !e.Kill(ids[2]) {
		t.Fatal("kill failed")
	}
	step(e, 1)

	if e.Star(ids[2]) != nil {
		t.Fatal("dead star still present")
	}
	if e.Stats().Stars != 4 {
		t.Fatalf("stars = %d, want 4", e.Stats().Stars)
	}
	after := make(map[world.PairKey]bool)
	for _, c := range e.Connections() {
		after[c.Key()] = true
	}
	for k := range before {
		touches := k.Lo == ids[2] || k.Hi == ids[2]
		if touches && after[k] {
			t.Errorf("connection %v survived its endpoint", k)
		}
		if !touches && !after[k] {
			t.Errorf("unrelated connection %v removed", k)
		}
	}
	if len(after) != 3 {
		t.Fatalf("connections after death = %d, want 3", len(after))
	}
	want := []string{"conn", "conn", "star"}
	if len(order) != len(want) {
		t.Fatalf("event order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("event order = %v, want %v", order, want)
		}
	}
}

func TestTerminalEventHookRunsForSupernova(t *testing.T) {
	cfg := quietConfig()
	cfg.SupernovaChance = 1
	e := newEngine(t, cfg)
	id := e.SpawnStar(mgl64.Vec3{}, -1)
	var got []event.StarDied
	e.OnTerminalEvent(func(ev event.StarDied) { got = append(got, ev) })
	e.Kill(id)
	e.Update(frame)
	if len(got) != 1 || got[0].StarID != id || !got[0].Supernova {
		t.Fatalf("hook calls = %+v", got)
	}
	if e.Stats().Supernovae != 1 {
		t.Fatalf("supernovae = %d", e.Stats().Supernovae)
	}
}

func TestBirthsNeverExceedPopulationCap(t *testing.T) {
	cfg := quietConfig()
	cfg.PopulationCap = 100
	cfg.PopulationThreshold = 1000
	cfg.BirthReplacementRatio = 1e6
	cfg.MaxDelta = time.Hour
	e := newEngine(t, cfg)
	groups := []galaxy.Group{{Name: "g", Radius: 50, Shape: "disk", Count: 100}}
	if err := e.InitializePopulation(groups); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		e.Update(time.Duration(i+1) * time.Minute)
		if n := e.Stats().Stars; n > 100 {
			t.Fatalf("population %d exceeds cap", n)
		}
	}
	if e.Stats().Births != 0 {
		t.Fatalf("births = %d at cap", e.Stats().Births)
	}
}

func TestBirthsReplaceDeaths(t *testing.T) {
	cfg := quietConfig()
	cfg.PopulationCap = 1000
	cfg.BirthReplacementRatio = 1000 // one birth per tick below the ceiling
	e := newEngine(t, cfg)
	groups := []galaxy.Group{{Name: "g", Radius: 50, Shape: "disk", Count: 10}}
	if err := e.InitializePopulation(groups); err != nil {
		t.Fatal(err)
	}
	stars := e.Stars()
	e.Kill(stars[0].ID)
	e.Kill(stars[1].ID)
	e.Update(frame)
	if n := e.Stats().Stars; n != 9 {
		t.Fatalf("stars after two deaths and one birth tick = %d, want 9", n)
	}
	e.Update(frame)
	if n := e.Stats().Stars; n != 10 {
		t.Fatalf("stars = %d, want 10", n)
	}
	e.Update(frame)
	if n := e.Stats().Stars; n != 10 {
		t.Fatalf("births overshot the initial target: %d", n)
	}
	newest := e.Stars()[9]
	if newest.Age != 0.1 && newest.Age != 0.2 {
		// born at most two ticks ago
		t.Fatalf("newborn age = %v", newest.Age)
	}
	if world.PlanarDistance(newest.Position, groups[0].CenterVec()) > groups[0].Radius {
		t.Fatal("newborn placed outside its group")
	}
}

func TestInitializePopulationSeedsGroups(t *testing.T) {
	cfg := quietConfig()
	cfg.MinLifetime = 100
	cfg.MaxConnectionDistance = 0
	cfg.ConnectionDistanceFactor = 0.5
	e := newEngine(t, cfg)
	groups := []galaxy.Group{
		{Name: "a", Radius: 80, Shape: "spiral", Arms: 3, Count: 300, AgeMin: 0.2, AgeMax: 0.4,
			Clouds: 4, CloudMinRadius: 3, CloudRadiusRange: 2},
		{Name: "b", Center: [3]float64{500, 0, 0}, Radius: 40, Shape: "ring", Count: 100},
	}
	if err := e.InitializePopulation(groups); err != nil {
		t.Fatal(err)
	}
	if err := e.InitializePopulation(groups); err == nil {
		t.Fatal("second initialization accepted")
	}
	st := e.Stats()
	if st.Stars != 400 || st.Clouds != 4 {
		t.Fatalf("stats = %+v", st)
	}
	if got := e.ConnectionDistance(); got != 40 {
		t.Fatalf("derived connection distance = %v, want 40", got)
	}
	for _, s := range e.Stars() {
		if s.Group == 0 && (s.Age < 20 || s.Age > 40) {
			t.Fatalf("group a star age %v outside profile", s.Age)
		}
		if s.Group == 1 && s.Age != 0 {
			t.Fatalf("group b star age %v, want 0", s.Age)
		}
	}
	near := e.StarsNear(groups[1].CenterVec(), 45)
	if len(near) != 100 {
		t.Fatalf("StarsNear found %d of group b's 100 stars", len(near))
	}
}

func TestStarsInsideMinimumDistanceStayDormant(t *testing.T) {
	cfg := quietConfig()
	cfg.ActivationChance = 5
	cfg.LifeChance = 1
	cfg.MinActivationDistance = 30
	cfg.CoreExclusionRadius = 30
	e := newEngine(t, cfg)
	groups := []galaxy.Group{{Name: "g", Radius: 60, Shape: "disk", Count: 400}}
	if err := e.InitializePopulation(groups); err != nil {
		t.Fatal(err)
	}
	emitted := make(map[ecs.EntityID]bool)
	event.Subscribe(e.Bus(), func(ev event.StarEmitted) { emitted[ev.StarID] = true })
	for i := 0; i < 100; i++ {
		e.Update(frame)
		for _, s := range e.Stars() {
			if s.PlanarDistance() < cfg.MinActivationDistance && (s.Active() || s.Spent()) {
				t.Fatalf("star at planar distance %v activated", s.PlanarDistance())
			}
		}
	}
	if e.Stats().Active == 0 {
		t.Fatal("no star outside the minimum distance activated")
	}
	for id := range emitted {
		if s := e.Star(id); s != nil && s.PlanarDistance() < cfg.CoreExclusionRadius {
			t.Fatalf("star inside exclusion radius emitted")
		}
	}
}

func TestConnectionInvariantsUnderRandomDynamics(t *testing.T) {
	cfg := config.DefaultSimulation()
	cfg.Seed = 99
	cfg.ActivationChance = 0.5
	cfg.DeactivationChance = 0.05
	cfg.LifeChance = 0.8
	cfg.MinLifetime = 20
	cfg.LifetimeRange = 40
	cfg.MinActivationDistance = 5
	cfg.PropagationSpeed = 10
	cfg.MaxConnectionDistance = 15
	cfg.PopulationCap = 2000
	e := newEngine(t, cfg)
	groups := []galaxy.Group{{Name: "g", Radius: 60, Shape: "spiral", Arms: 2, ArmTwist: 4, Count: 600}}
	if err := e.InitializePopulation(groups); err != nil {
		t.Fatal(err)
	}

	var formed []event.ConnectionCreated
	event.Subscribe(e.Bus(), func(ev event.ConnectionCreated) { formed = append(formed, ev) })

	dt := frame.Seconds()
	for tick := 0; tick < 300; tick++ {
		formed = formed[:0]
		e.Update(frame)

		seen := make(map[world.PairKey]bool)
		for _, c := range e.Connections() {
			if seen[c.Key()] {
				t.Fatalf("duplicate connection %v", c.Key())
			}
			seen[c.Key()] = true
			a, b := e.Star(c.A), e.Star(c.B)
			if a == nil || b == nil || !a.Active() || !b.Active() {
				t.Fatalf("connection %v has a dead or inactive endpoint", c.Key())
			}
			if c.Distance > e.ConnectionDistance() {
				t.Fatalf("connection %v longer than max distance", c.Key())
			}
		}
		for _, f := range formed {
			a, b := e.Star(f.A), e.Star(f.B)
			if a == nil || b == nil {
				t.Fatalf("connection event for a missing star: %+v", f)
			}
			required := 2 * a.Position.Sub(b.Position).Len() / cfg.PropagationSpeed
			ta, tb := a.ActiveFor(e.Now()).Seconds(), b.ActiveFor(e.Now()).Seconds()
			if ta < required || tb < required {
				t.Fatalf("connection formed early: active %v/%v, required %v", ta, tb, required)
			}
			// both already qualified on the previous tick
			if math.Min(ta, tb)-dt >= required+1e-9 {
				t.Fatalf("connection formed late: active %v/%v, required %v", ta, tb, required)
			}
		}
	}
	if e.Stats().Connections == 0 && e.deps.Counters.Created == 0 {
		t.Fatal("random run never formed a connection")
	}
}

func TestIndependentEnginesAreReproducible(t *testing.T) {
	cfg := config.DefaultSimulation()
	cfg.Seed = 1234
	cfg.ActivationChance = 0.3
	cfg.MinLifetime = 5
	cfg.LifetimeRange = 10
	cfg.SupernovaChance = 0.5
	groups := []galaxy.Group{{Name: "g", Radius: 40, Shape: "spiral", Count: 200, AgeMax: 1}}

	run := func() Stats {
		e := newEngine(t, cfg)
		if err := e.InitializePopulation(groups); err != nil {
			t.Fatal(err)
		}
		step(e, 200)
		return e.Stats()
	}
	a, b := run(), run()
	if a != b {
		t.Fatalf("same seed diverged:\n%+v\n%+v", a, b)
	}
	if a.Deaths == 0 {
		t.Fatal("expected deaths with short lifetimes")
	}
}

func TestUpdateClampsStalledFrames(t *testing.T) {
	cfg := quietConfig()
	cfg.MaxDelta = 250 * time.Millisecond
	e := newEngine(t, cfg)
	e.Update(10 * time.Second)
	if e.Now() != 250*time.Millisecond {
		t.Fatalf("clock = %v, want clamped 250ms", e.Now())
	}
}

func TestNewRejectsDegenerateGridFactors(t *testing.T) {
	for _, g := range []config.GridConfig{
		{ConnectionCellFactor: 1e-20, CloudCellFactor: 2},
		{ConnectionCellFactor: 1, CloudCellFactor: math.NaN()},
		{ConnectionCellFactor: 1e9, CloudCellFactor: 2},
	} {
		_, err := New(quietConfig(), WithGrid(g))
		var verr *config.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("grid %+v: err = %v, want *config.ValidationError", g, err)
		}
	}
	e, err := New(quietConfig(), WithGrid(config.GridConfig{
		ConnectionCellFactor: config.MinCellFactor,
		CloudCellFactor:      config.MinCellFactor,
	}))
	if err != nil {
		t.Fatalf("smallest legal factors rejected: %v", err)
	}
	a := e.SpawnStar(mgl64.Vec3{0, 0, 0}, -1)
	b := e.SpawnStar(mgl64.Vec3{10, 0, 0}, -1)
	e.Activate(a)
	e.Activate(b)
	step(e, 50)
	if got := e.Stats().Connections; got != 1 {
		t.Fatalf("connections with small cells = %d, want 1", got)
	}
}

func TestInitializePopulationRejectsMalformedGroups(t *testing.T) {
	cases := map[string]galaxy.Group{
		"negative count": {Name: "bad", Radius: 10, Count: -1},
		"zero radius":    {Name: "bad", Radius: 0, Count: 5},
		"nan radius":     {Name: "bad", Radius: math.NaN(), Count: 5},
		"ages reversed":  {Name: "bad", Radius: 10, Count: 5, AgeMin: 0.8, AgeMax: 0.2},
		"unknown shape":  {Name: "bad", Radius: 10, Count: 5, Shape: "cube"},
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEngine(t, quietConfig())
			good := galaxy.Group{Name: "good", Radius: 10, Count: 3}
			if err := e.InitializePopulation([]galaxy.Group{good, bad}); err == nil {
				t.Fatal("malformed group accepted")
			}
			if n := e.Stats().Stars; n != 0 {
				t.Fatalf("rejected table still seeded %d stars", n)
			}
			if err := e.InitializePopulation([]galaxy.Group{good}); err != nil {
				t.Fatalf("valid table after rejection: %v", err)
			}
		})
	}
}

func TestCustomPlacerPositionsEveryStar(t *testing.T) {
	calls := 0
	line := galaxy.PlacerFunc(func(g *galaxy.Group, _ *rand.Rand) mgl64.Vec3 {
		calls++
		return g.CenterVec().Add(mgl64.Vec3{float64(calls), 0, 0})
	})
	e, err := New(quietConfig(), WithPlacer(line))
	if err != nil {
		t.Fatal(err)
	}
	g := galaxy.Group{Name: "line", Center: [3]float64{100, 0, 0}, Radius: 10, Count: 5}
	if err := e.InitializePopulation([]galaxy.Group{g}); err != nil {
		t.Fatal(err)
	}
	if calls != 5 {
		t.Fatalf("placer called %d times, want 5", calls)
	}
	for i, s := range e.Stars() {
		want := mgl64.Vec3{101 + float64(i), 0, 0}
		if s.Position != want {
			t.Fatalf("star %d at %v, want %v", i, s.Position, want)
		}
	}
}
