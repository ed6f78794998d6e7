package relay

import "github.com/zoobzio/capitan"

// Signals for hook events.
const (
	StageStarted   = capitan.Signal("pipeline.stage.started")
	StageCompleted = capitan.Signal("pipeline.stage.completed")
	StageFailed    = capitan.Signal("pipeline.stage.failed")

	ProviderCallStarted   = capitan.Signal("pipeline.provider.call.started")
	ProviderCallCompleted = capitan.Signal("pipeline.provider.call.completed")
	ProviderCallFailed    = capitan.Signal("pipeline.provider.call.failed")

	RouteMatched   = capitan.Signal("pipeline.route.matched")
	RouteDefaulted = capitan.Signal("pipeline.route.defaulted")

	HistoryAppended = capitan.Signal("pipeline.history.appended")
)

// Keys for hook event fields.
var (
	// Request and stage identification.
	RequestIDKey   = capitan.NewStringKey("pipeline.request.id")
	StageKey       = capitan.NewStringKey("pipeline.stage")
	OutputFieldKey = capitan.NewStringKey("pipeline.output.field")
	TemperatureKey = capitan.NewFloat64Key("pipeline.temperature")

	// Session and routing data.
	SessionIDKey = capitan.NewStringKey("pipeline.session.id")
	RouteKey     = capitan.NewStringKey("pipeline.route")
	LabelKey     = capitan.NewStringKey("pipeline.route.label")

	// Prompt/response data.
	PromptKey   = capitan.NewStringKey("pipeline.prompt")
	ResponseKey = capitan.NewStringKey("pipeline.response")

	// Error information.
	ErrorKey     = capitan.NewStringKey("pipeline.error")
	ErrorTypeKey = capitan.NewStringKey("pipeline.error.type")

	// Provider information.
	ProviderKey = capitan.NewStringKey("pipeline.provider")
	ModelKey    = capitan.NewStringKey("pipeline.model")

	// Provider metrics.
	PromptTokensKey     = capitan.NewIntKey("pipeline.tokens.prompt")
	CompletionTokensKey = capitan.NewIntKey("pipeline.tokens.completion")
	TotalTokensKey      = capitan.NewIntKey("pipeline.tokens.total")
	DurationMsKey       = capitan.NewIntKey("pipeline.duration.ms")

	// HTTP/API metadata emitted by provider packages.
	HTTPStatusCodeKey = capitan.NewIntKey("pipeline.http.status.code")
	APIErrorTypeKey   = capitan.NewStringKey("pipeline.api.error.type")
	APIErrorCodeKey   = capitan.NewStringKey("pipeline.api.error.code")

	// Response metadata emitted by provider packages.
	ResponseIDKey           = capitan.NewStringKey("pipeline.response.id")
	ResponseFinishReasonKey = capitan.NewStringKey("pipeline.response.finish.reason")
	ResponseCreatedKey      = capitan.NewIntKey("pipeline.response.created")
)
