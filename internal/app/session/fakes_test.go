package session

import (
	"context"
	"sync"
)

type fakeSub struct {
	sdk     *fakeSDK
	event   EventType
	removed int
}

func (s *fakeSub) Remove() {
	s.sdk.mu.Lock()
	defer s.sdk.mu.Unlock()
	s.removed++
}

type fakeSDK struct {
	mu   sync.Mutex
	subs []*fakeSub
	hdls map[*fakeSub]Handler

	joinErr   error
	leaveErr  error
	joined    []JoinConfig
	leaveArgs []bool

	video     fakeVideo
	recording fakeRecording
	share     fakeShare
}

func newFakeSDK() *fakeSDK {
	return &fakeSDK{hdls: make(map[*fakeSub]Handler)}
}

func (f *fakeSDK) JoinSession(_ context.Context, cfg JoinConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, cfg)
	return f.joinErr
}

func (f *fakeSDK) LeaveSession(end bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaveArgs = append(f.leaveArgs, end)
	return f.leaveErr
}

func (f *fakeSDK) AddListener(event EventType, h Handler) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{sdk: f, event: event}
	f.subs = append(f.subs, sub)
	f.hdls[sub] = h
	return sub
}

func (f *fakeSDK) Video() VideoHelper         { return &f.video }
func (f *fakeSDK) Recording() RecordingHelper { return &f.recording }
func (f *fakeSDK) Share() ShareHelper         { return &f.share }

// emit delivers payload to every live listener of event.
func (f *fakeSDK) emit(event EventType, payload any) {
	f.mu.Lock()
	var targets []Handler
	for _, sub := range f.subs {
		if sub.event == event && sub.removed == 0 {
			targets = append(targets, f.hdls[sub])
		}
	}
	f.mu.Unlock()

	for _, h := range targets {
		h(payload)
	}
}

func (f *fakeSDK) liveListeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sub := range f.subs {
		if sub.removed == 0 {
			n++
		}
	}
	return n
}

type fakeVideo struct {
	startResult, stopResult Result
	err                     error
	starts, stops           int
}

func (v *fakeVideo) StartVideo(context.Context) (Result, error) {
	v.starts++
	return v.startResult, v.err
}

func (v *fakeVideo) StopVideo(context.Context) (Result, error) {
	v.stops++
	return v.stopResult, v.err
}

type fakeRecording struct {
	result        Result
	starts, stops int
}

func (r *fakeRecording) StartCloudRecording(context.Context) (Result, error) {
	r.starts++
	return r.result, nil
}

func (r *fakeRecording) StopCloudRecording(context.Context) (Result, error) {
	r.stops++
	return r.result, nil
}

type fakeShare struct {
	otherSharing bool
	locked       bool
	lockCalls    []bool
	shares       int
	stops        int
}

func (s *fakeShare) ShareScreen(context.Context) error { s.shares++; return nil }
func (s *fakeShare) StopShare(context.Context) error   { s.stops++; return nil }

func (s *fakeShare) IsOtherSharing(context.Context) (bool, error) { return s.otherSharing, nil }
func (s *fakeShare) IsShareLocked(context.Context) (bool, error)  { return s.locked, nil }

func (s *fakeShare) LockShare(_ context.Context, lock bool) (Result, error) {
	s.lockCalls = append(s.lockCalls, lock)
	return ResultSuccess, nil
}

type staticTokens struct {
	token string
	err   error
	calls []string
}

func (s *staticTokens) SessionToken(_ context.Context, name string) (string, error) {
	s.calls = append(s.calls, name)
	return s.token, s.err
}

// gatedTokens blocks every SessionToken call until release is closed.
type gatedTokens struct {
	calls   chan string
	release chan struct{}
}

func newGatedTokens() *gatedTokens {
	return &gatedTokens{calls: make(chan string, 16), release: make(chan struct{})}
}

func (g *gatedTokens) SessionToken(_ context.Context, name string) (string, error) {
	g.calls <- name
	<-g.release
	return "header.payload.sig", nil
}
