package dispatch

import (
	"context"

	"github.com/JangoCity/Orleankka/actor"
)

// Message types used across the tests.
type (
	msgIncrement struct{}
	msgGetValue  struct{}
	msgReset     struct{}
	msgPing      struct{ Seq int }
	msgEcho      struct {
		Text string `msgpack:"text"`
	}
	msgAsync      struct{}
	msgAsyncValue struct{}
	msgLocal      struct{}
	msgRooted     struct{}
	msgSnapshot   struct{}
	msgLeftSide   struct{}
	msgRightSide  struct{}
	msgLeft       struct{}
	msgRight      struct{}
	msgRegistered struct {
		N int `msgpack:"n"`
	}
)

// counterActor mirrors the canonical counter scenario: a void handler
// with a side effect and a value-returning handler.
type counterActor struct {
	actor.Base

	count          int64
	incrementCalls int
}

func (c *counterActor) OnIncrement(_ msgIncrement) {
	c.count++
	c.incrementCalls++
}

func (c *counterActor) AnswerValue(_ msgGetValue) int64 {
	return c.count
}

// shapesActor declares one handler per supported return shape.
type shapesActor struct {
	actor.Base

	failWith error
	gotCtx   context.Context
}

func (s *shapesActor) OnVoid(_ msgPing) {}

func (s *shapesActor) AnswerEcho(m msgEcho) string {
	return m.Text
}

func (s *shapesActor) HandleAsync(ctx context.Context, _ msgAsync) error {
	s.gotCtx = ctx
	return s.failWith
}

func (s *shapesActor) HandleAsyncValue(_ context.Context, _ msgAsyncValue) (string, error) {
	if s.failWith != nil {
		return "", s.failWith
	}
	return "ok", nil
}

// Value receiver, promoted into the pointer method set
func (s shapesActor) ApplySnapshot(_ msgSnapshot) {}

// pingBase is embedded by derivedActor; its handler is discovered
// through promotion.
type pingBase struct {
	actor.Base

	pings int
}

func (b *pingBase) OnPing(m msgPing) {
	b.pings += m.Seq
}

type derivedActor struct {
	pingBase
}

func (d *derivedActor) OnLocal(_ msgLocal) {}

// customRoot is used as a root boundary override; its handler must
// never be discovered.
type customRoot struct{}

func (r *customRoot) OnRooted(_ msgRooted) {}

type boundedActor struct {
	customRoot
}

func (b *boundedActor) OnLocal(_ msgLocal) {}

// shadowingActor declares its own handler under the same name as
// customRoot's method, for a different message type.
type shadowingActor struct {
	customRoot

	rooted int
}

func (s *shadowingActor) OnRooted(_ msgLocal) {
	s.rooted++
}

// echoDuplicate declares two convention methods accepting the same
// message type.
type echoDuplicate struct {
	actor.Base
}

func (e *echoDuplicate) OnPing(_ msgPing)     {}
func (e *echoDuplicate) HandlePing(_ msgPing) {}

// crossLevelDuplicate collides with a handler declared on its embedded
// type.
type dupBase struct {
	actor.Base
}

func (b *dupBase) HandlePing(_ msgPing) {}

type crossLevelDuplicate struct {
	dupBase
}

func (d *crossLevelDuplicate) OnPing(_ msgPing) {}

// leftBase and rightBase both declare OnSide; the promotion is
// ambiguous in Go, so both are collected at their declaring types and
// invoked through the embedded field path.
type leftBase struct {
	actor.Base

	sides int
}

func (l *leftBase) HandleLeft(_ msgLeft) {}

func (l *leftBase) OnSide(_ msgLeftSide) {
	l.sides++
}

type rightBase struct {
	actor.Base

	sides int
}

func (r *rightBase) HandleRight(_ msgRight) {}

func (r *rightBase) OnSide(_ msgRightSide) {
	r.sides++
}

type wideActor struct {
	leftBase
	rightBase
}

// ptrWideActor embeds one of its ambiguous bases through a pointer.
type ptrWideActor struct {
	*leftBase
	rightBase
}

// aBase and bBase collide on the same name and the same message type.
type aBase struct {
	actor.Base
}

func (a *aBase) OnPing(_ msgPing) {}

type bBase struct {
	actor.Base
}

func (b *bBase) OnPing(_ msgPing) {}

type ambiguousActor struct {
	aBase
	bBase
}

// slowActor lets tests advance a fake clock from inside a handler.
type slowActor struct {
	actor.Base

	tick func()
}

func (s *slowActor) OnSlow(_ msgPing) {
	if s.tick != nil {
		s.tick()
	}
}

func (s *slowActor) AnswerFast(_ msgGetValue) int64 {
	return 0
}

// oddSignatures declares methods the scanner must exclude; only
// HandleGood is a valid candidate.
type oddSignatures struct {
	actor.Base
}

func (o *oddSignatures) On()                                       {}
func (o *oddSignatures) OnTwoMessages(_ msgPing, _ msgPing)        {}
func (o *oddSignatures) OnVariadic(_ ...msgPing)                   {}
func (o *oddSignatures) OnManyReturns(_ msgPing) (int, int, error) { return 0, 0, nil }
func (o *oddSignatures) OnCtxOnly(_ context.Context)               {}
func (o *oddSignatures) Only(_ msgPing)                            {}
func (o *oddSignatures) Process(_ msgPing)                         {}
func (o *oddSignatures) HandleGood(_ msgPing)                      {}
