package session

import "videosdk/internal/pkg/logx"

// SampleBufferType tells the screen-share service what a captured buffer holds.
type SampleBufferType int

const (
	SampleBufferVideo SampleBufferType = iota + 1
	SampleBufferAudioApp
	SampleBufferAudioMic
)

// SampleBuffer is an opaque captured frame handed over by the OS broadcast host.
type SampleBuffer any

// ScreenShareService is the SDK service that consumes broadcast frames.
type ScreenShareService interface {
	BroadcastStarted(setupInfo map[string]any)
	BroadcastPaused()
	BroadcastResumed()
	BroadcastFinished()
	ProcessSampleBuffer(buf SampleBuffer, typ SampleBufferType)
}

// BroadcastHost is the OS side of a broadcast extension.
type BroadcastHost interface {
	FinishBroadcastWithError(err error)
}

// BroadcastAdapter forwards broadcast lifecycle calls to the screen-share
// service and ends the broadcast when the service reports an error.
type BroadcastAdapter struct {
	service ScreenShareService
	host    BroadcastHost
}

// NewBroadcastAdapter wires service and host together.
func NewBroadcastAdapter(service ScreenShareService, host BroadcastHost) *BroadcastAdapter {
	return &BroadcastAdapter{service: service, host: host}
}

// BroadcastStarted forwards setupInfo. A broadcast without setup info is not forwarded.
func (a *BroadcastAdapter) BroadcastStarted(setupInfo map[string]any) {
	if setupInfo == nil {
		logx.Debug("Broadcast started without setup info; not forwarded")
		return
	}
	a.service.BroadcastStarted(setupInfo)
}

func (a *BroadcastAdapter) BroadcastPaused() {
	a.service.BroadcastPaused()
}

func (a *BroadcastAdapter) BroadcastResumed() {
	a.service.BroadcastResumed()
}

func (a *BroadcastAdapter) BroadcastFinished() {
	a.service.BroadcastFinished()
}

func (a *BroadcastAdapter) ProcessSampleBuffer(buf SampleBuffer, typ SampleBufferType) {
	a.service.ProcessSampleBuffer(buf, typ)
}

// ScreenShareServiceFinishedWithError is the service's error callback.
// A nil error is ignored.
func (a *BroadcastAdapter) ScreenShareServiceFinishedWithError(err error) {
	if err == nil {
		return
	}
	logx.Warn("Screen share service failed; finishing broadcast", "error", err.Error())
	a.host.FinishBroadcastWithError(err)
}
