package game

import (
	"math"
	"time"

	"go.uber.org/zap"

	"tank-arena/internal/collision"
	"tank-arena/internal/entity"
	"tank-arena/internal/game/spatial"
	"tank-arena/internal/geom"
	"tank-arena/internal/projectile"
	"tank-arena/internal/props"
)

const (
	SpeedBoostFactor = 3.0
	TurretHeight     = 0.5 // Turret pivot above the hull origin
	MuzzleLength     = 1.5 // Muzzle distance from the pivot
)

// objective is the capture point at the arena center.
var objective = geom.Vec3{}

// tick runs the fixed step sequence. The caller holds the write lock and has
// checked that the session is running and not paused.
func (s *Session) tick(in Input) {
	start := time.Now()
	dt := s.cfg.TickDelta
	s.tickNum++

	s.stepPlayer(in, dt)
	s.stepTurret(in.LookDelta)
	s.stepEnemies(dt)
	s.separateVehicles()

	s.shells.PlayerInvulnerable = s.debug.Immortal
	s.shells.StepFriendly(s.arena, s.enemies, s.props, dt, s.onHit)
	s.shells.StepHostile(s.arena, s.player, dt, s.onHit)

	s.props = props.Step(s.props, s.vehicles, s.arena, s.cfg.Bound)
	s.checkCapture()

	s.stepEffects()
	s.evaluateTerminal()

	s.publish()
	if s.cfg.Hooks.OnTick != nil {
		s.cfg.Hooks.OnTick(time.Since(start), s.stats())
	}
}

// stepPlayer applies movement, obstacle resolution, clamping and firing.
func (s *Session) stepPlayer(in Input, dt float64) {
	p := s.player
	if !p.Alive {
		s.setEngineSpeed(0)
		return
	}

	speed := p.Speed
	if s.debug.SpeedBoost {
		speed *= SpeedBoostFactor
	}
	moving := 0.0
	if in.Forward {
		p.Position = p.Position.Add(p.Forward().Scale(speed))
		moving = speed
	}
	if in.Back {
		p.Position = p.Position.Sub(p.Forward().Scale(speed))
		moving = speed
	}
	if in.Left {
		p.Yaw += p.RotationSpeed
	}
	if in.Right {
		p.Yaw -= p.RotationSpeed
	}
	s.setEngineSpeed(moving)

	if !s.debug.Noclip {
		if c, hit := s.arena.OrientedHit(p.Footprint()); hit {
			collision.ResolvePush(&p.Position, c.Normal, c.Depth)
		}
	}
	s.clampVehicle(p)

	p.TimeSinceShot = math.Min(p.TimeSinceShot+dt, p.FireRate)
	if in.Fire && (p.TimeSinceShot >= p.FireRate || s.debug.InfiniteAmmo) {
		s.firePlayer()
	}
}

func (s *Session) setEngineSpeed(speed float64) {
	if speed == s.engineSpeed {
		return
	}
	s.engineSpeed = speed
	s.audio.EngineSpeed(speed)
}

// firePlayer spawns a shell from the turret muzzle along the turret facing.
func (s *Session) firePlayer() {
	p := s.player
	yaw := p.Yaw + p.TurretYaw
	pivot := p.Position.Add(geom.V3(0, TurretHeight, 0))
	origin := pivot.Add(geom.RotateY3(geom.V3(0, 0, MuzzleLength), yaw))

	shell, err := s.shells.Spawn(true, origin, geom.Forward(yaw), p.FirePower, p.ID)
	if err != nil {
		s.logger.Debug("player shot dropped", zap.String("session", s.id), zap.Error(err))
		return
	}
	p.TimeSinceShot = 0
	s.shotFired(shell)
}

func (s *Session) shotFired(shell *entity.Projectile) {
	s.audio.ShotFired(shell.Friendly, shell.Position)
	s.scene.Spawned(EntityRef{Kind: EntityProjectile, ID: shell.ID})
	s.emit(EventTypeShot, shell.OwnerID, ShotPayload{
		ProjectileID: shell.ID,
		Friendly:     shell.Friendly,
		X:            shell.Position.X,
		Z:            shell.Position.Z,
	})
	if s.cfg.Hooks.OnShot != nil {
		s.cfg.Hooks.OnShot(shell.Friendly)
	}
}

// stepTurret turns the camera by lookDelta and points the turret away from
// it, relative to the body.
func (s *Session) stepTurret(lookDelta float64) {
	if !math.IsNaN(lookDelta) && !math.IsInf(lookDelta, 0) {
		s.cameraTheta = math.Remainder(s.cameraTheta+lookDelta, 2*math.Pi)
	}
	s.player.TurretYaw = math.Remainder(s.cameraTheta+math.Pi-s.player.Yaw, 2*math.Pi)
}

// stepEnemies runs the AI for each living enemy and spawns its shots.
func (s *Session) stepEnemies(dt float64) {
	s.ai.IgnorePlayer = s.debug.NoTarget
	for _, e := range s.enemies {
		if !e.Alive {
			continue
		}
		d := s.ai.Update(e, s.player, s.arena, dt)
		s.clampVehicle(e)
		if !d.Fire {
			continue
		}
		shell, err := s.shells.Spawn(false, d.Origin, d.Direction, e.FirePower, e.ID)
		if err != nil {
			s.logger.Debug("enemy shot dropped", zap.String("session", s.id), zap.String("enemy", e.ID), zap.Error(err))
			continue
		}
		s.shotFired(shell)
	}
}

// separateVehicles pushes overlapping vehicle footprints apart. Candidate
// pairs come from sweep-and-prune over the footprints' bounding circles.
func (s *Session) separateVehicles() {
	s.bodies = s.bodies[:0]
	s.circles = s.circles[:0]
	for _, v := range s.vehicles {
		if !v.Alive {
			continue
		}
		if v == s.player && s.debug.Noclip {
			continue
		}
		fp := v.Footprint()
		s.bodies = append(s.bodies, v)
		s.circles = append(s.circles, spatial.Circle{X: fp.Center.X, Z: fp.Center.Z, Radius: fp.Radius()})
	}
	if len(s.bodies) < 2 {
		return
	}

	for _, pair := range s.sap.Update(s.circles) {
		a, b := s.bodies[pair.A], s.bodies[pair.B]
		c, hit := collision.OrientedVsOriented(a.Footprint(), b.Footprint())
		if !hit {
			continue
		}
		collision.ResolveMutualPush(&a.Position, &b.Position, c.Normal, c.Depth)
		s.clampVehicle(a)
		s.clampVehicle(b)
	}
}

func (s *Session) clampVehicle(v *entity.Vehicle) {
	v.Position, _, _ = s.arena.Clamp(v.Position, s.arena.HalfExtent()-s.cfg.Bound)
	v.Position.Y = entity.GroundHeight
}

// handleHit applies scoring, effects and terminal checks for one resolved
// shell. It runs inside the projectile step.
func (s *Session) handleHit(h projectile.Hit) {
	ref := EntityRef{Kind: EntityProjectile, ID: h.Projectile.ID}
	s.scene.Despawned(ref)

	switch h.Kind {
	case projectile.HitExpired:
		return

	case projectile.HitObstacle:
		s.spawnExplosion(ExplosionImpact, h.Position)
		s.emit(EventTypeImpact, h.Projectile.ID, HitPayload{
			ProjectileID: h.Projectile.ID,
			X:            h.Position.X,
			Z:            h.Position.Z,
		})

	case projectile.HitEnemy:
		s.spawnExplosion(ExplosionEnemyHit, h.Position)
		s.emit(EventTypeEnemyHit, h.Vehicle.ID, s.hitPayload(h, h.Vehicle.Health))
		if !h.Killed {
			return
		}
		s.score += h.Points
		s.kills++
		s.scene.Despawned(EntityRef{Kind: EntityVehicle, ID: h.Vehicle.ID})
		s.emit(EventTypeEnemyKilled, h.Vehicle.ID, ScorePayload{Score: s.score, Kills: s.kills})
		if s.kills >= s.cfg.KillsToWin {
			s.finish(OutcomeWon, "kills")
		}

	case projectile.HitProp:
		s.spawnExplosion(ExplosionPropHit, h.Position)
		s.score += h.Points
		s.emit(EventTypePropHit, h.Prop.ID, s.hitPayload(h, h.Prop.Health))
		if h.Killed {
			s.scene.Despawned(EntityRef{Kind: EntityProp, ID: h.Prop.ID})
			s.emit(EventTypePropDestroyed, h.Prop.ID, ScorePayload{Score: s.score, Kills: s.kills})
		}

	case projectile.HitPlayer:
		s.spawnExplosion(ExplosionPlayerHit, h.Position)
		s.emit(EventTypePlayerHit, h.Vehicle.ID, s.hitPayload(h, h.Vehicle.Health))
		if h.Killed || h.Vehicle.Health <= 0 {
			s.finish(OutcomeLost, "destroyed")
		}
	}
}

func (s *Session) hitPayload(h projectile.Hit, health float64) HitPayload {
	p := HitPayload{
		ProjectileID: h.Projectile.ID,
		Damage:       h.Damage,
		Health:       health,
		X:            h.Position.X,
		Z:            h.Position.Z,
	}
	switch {
	case h.Vehicle != nil:
		p.TargetID = h.Vehicle.ID
	case h.Prop != nil:
		p.TargetID = h.Prop.ID
	}
	return p
}

// spawnExplosion adds an effect, evicting the oldest above the limit.
func (s *Session) spawnExplosion(kind ExplosionKind, pos geom.Vec3) {
	if n := len(s.explosions); n >= s.cfg.Limits.MaxExplosions {
		old := s.explosions[0]
		s.scene.Despawned(EntityRef{Kind: EntityExplosion, ID: old.ID})
		copy(s.explosions, s.explosions[1:])
		s.explosions[n-1] = nil
		s.explosions = s.explosions[:n-1]
	}
	e := NewExplosion(kind, pos)
	s.explosions = append(s.explosions, e)
	s.scene.Spawned(EntityRef{Kind: EntityExplosion, ID: e.ID})
	s.audio.Explosion(pos, e.Scale)
}

// stepEffects fades explosions and drops the spent ones.
func (s *Session) stepEffects() {
	n := 0
	for _, e := range s.explosions {
		if !e.Update() {
			s.scene.Despawned(EntityRef{Kind: EntityExplosion, ID: e.ID})
			continue
		}
		s.explosions[n] = e
		n++
	}
	clear(s.explosions[n:])
	s.explosions = s.explosions[:n]
}

// checkCapture measures from the hull center, so a grounded player must get
// within sqrt(r^2 - GroundHeight^2) on the ground plane.
func (s *Session) checkCapture() {
	if s.player.Alive && s.player.Position.Dist(objective) < s.cfg.CaptureRadius {
		s.finish(OutcomeWon, "capture")
	}
}

// evaluateTerminal applies the end-of-tick checks. The first outcome reached
// during the tick already stands; these only catch anything not decided at
// the moment it happened.
func (s *Session) evaluateTerminal() {
	switch {
	case s.player.Health <= 0:
		s.finish(OutcomeLost, "destroyed")
	case s.kills >= s.cfg.KillsToWin:
		s.finish(OutcomeWon, "kills")
	default:
		s.checkCapture()
	}
}

// finish fixes the outcome. Later calls are ignored.
func (s *Session) finish(o Outcome, reason string) {
	if s.outcome.Terminal() {
		return
	}
	s.outcome = o
	s.reason = reason

	t := EventTypeWin
	if o == OutcomeLost {
		t = EventTypeLoss
	}
	s.emit(t, s.player.ID, OutcomePayload{Outcome: o.String(), Reason: reason, Score: s.score, Kills: s.kills})
	s.logger.Info("session over",
		zap.String("session", s.id),
		zap.Stringer("outcome", o),
		zap.String("reason", reason),
		zap.Int("score", s.score),
		zap.Int("kills", s.kills),
		zap.Uint64("tick", s.tickNum),
	)
	if s.cfg.Hooks.OnOutcome != nil {
		s.cfg.Hooks.OnOutcome(o, reason)
	}
}

func (s *Session) stats() TickStats {
	alive := 0
	for _, e := range s.enemies {
		if e.Alive {
			alive++
		}
	}
	return TickStats{
		Tick:         s.tickNum,
		EnemiesAlive: alive,
		Projectiles:  s.shells.Count(),
		Props:        len(s.props),
		Explosions:   len(s.explosions),
		Score:        s.score,
		Kills:        s.kills,
	}
}

// publish writes the tick's snapshot into the pool and syncs the scene.
func (s *Session) publish() {
	snap := s.snapshots.AcquireWrite()
	limits := s.snapshots.Limits()

	snap.Tick = s.tickNum
	snap.SessionID = s.id
	snap.Paused = s.paused
	snap.Debug = s.debug
	snap.Player = vehicleSnapshot(s.player)

	alive := 0
	for _, e := range s.enemies {
		if e.Alive {
			alive++
		}
		if len(snap.Enemies) < limits.MaxEnemies {
			snap.Enemies = append(snap.Enemies, vehicleSnapshot(e))
		}
	}
	for _, list := range [][]*entity.Projectile{s.shells.Friendly(), s.shells.Hostile()} {
		for _, p := range list {
			snap.Projectiles = append(snap.Projectiles, ProjectileSnapshot{
				ID:       p.ID,
				X:        p.Position.X,
				Y:        p.Position.Y,
				Z:        p.Position.Z,
				Friendly: p.Friendly,
			})
		}
	}
	for _, p := range s.props {
		if len(snap.Props) >= limits.MaxProps {
			break
		}
		snap.Props = append(snap.Props, PropSnapshot{
			ID:     p.ID,
			X:      p.Position.X,
			Y:      p.Position.Y,
			Z:      p.Position.Z,
			Size:   p.Size,
			Health: p.Health,
		})
	}
	for _, e := range s.explosions {
		snap.Explosions = append(snap.Explosions, ExplosionSnapshot{
			X:       e.Position.X,
			Y:       e.Position.Y,
			Z:       e.Position.Z,
			Kind:    e.Kind.String(),
			Scale:   e.Scale,
			Color:   e.Color,
			Opacity: e.Opacity,
		})
	}
	snap.HUD = s.hud()
	snap.EnemiesAlive = alive

	s.snapshots.PublishWrite()
	s.scene.Sync(snap)
}

func vehicleSnapshot(v *entity.Vehicle) VehicleSnapshot {
	vs := VehicleSnapshot{
		ID:        v.ID,
		Kind:      v.Kind.String(),
		X:         v.Position.X,
		Y:         v.Position.Y,
		Z:         v.Position.Z,
		Yaw:       v.Yaw,
		TurretYaw: v.TurretYaw,
		Width:     v.Width,
		Length:    v.Length,
		Health:    v.Health,
		MaxHealth: v.MaxHealth,
		Alive:     v.Alive,
	}
	if v.Kind == entity.KindPlayer {
		cfg := v.Class.Config()
		vs.Class = cfg.Name
		vs.Color = cfg.Color
	} else {
		vs.Mode = v.Mode.String()
		vs.Spotted = v.Spotted
	}
	return vs
}
