package control

// Event names accepted by SetEvents and reported on the first line of
// 6xx replies. The set follows control-spec section 4.1.
const (
	EventCircuitStatus      = "CIRC"
	EventCircuitStatusMinor = "CIRC_MINOR"
	EventStreamStatus       = "STREAM"
	EventORConnStatus       = "ORCONN"
	EventBandwidthUsed      = "BW"
	EventDebugMsg           = "DEBUG"
	EventInfoMsg            = "INFO"
	EventNoticeMsg          = "NOTICE"
	EventWarnMsg            = "WARN"
	EventErrMsg             = "ERR"
	EventNewDesc            = "NEWDESC"
	EventAddrMap            = "ADDRMAP"
	EventDescChanged        = "DESCCHANGED"
	EventNS                 = "NS"
	EventStatusGeneral      = "STATUS_GENERAL"
	EventStatusClient       = "STATUS_CLIENT"
	EventStatusServer       = "STATUS_SERVER"
	EventGuard              = "GUARD"
	EventStreamBandwidth    = "STREAM_BW"
	EventClientsSeen        = "CLIENTS_SEEN"
	EventBuildTimeoutSet    = "BUILDTIMEOUT_SET"
	EventGotSignal          = "SIGNAL"
	EventConfChanged        = "CONF_CHANGED"
	EventConnBandwidth      = "CONN_BW"
	EventCellStats          = "CELL_STATS"
	EventCircBandwidth      = "CIRC_BW"
	EventTransportLaunched  = "TRANSPORT_LAUNCHED"
	EventHSDesc             = "HS_DESC"
	EventHSDescContent      = "HS_DESC_CONTENT"
	EventNetworkLiveness    = "NETWORK_LIVENESS"
)

// KnownEvents lists every event name this package recognizes, in the
// order control-spec documents them. SetEvents validates its arguments
// against this list.
var KnownEvents = []string{
	EventCircuitStatus,
	EventCircuitStatusMinor,
	EventStreamStatus,
	EventORConnStatus,
	EventBandwidthUsed,
	EventDebugMsg,
	EventInfoMsg,
	EventNoticeMsg,
	EventWarnMsg,
	EventErrMsg,
	EventNewDesc,
	EventAddrMap,
	EventDescChanged,
	EventNS,
	EventStatusGeneral,
	EventStatusClient,
	EventStatusServer,
	EventGuard,
	EventStreamBandwidth,
	EventClientsSeen,
	EventBuildTimeoutSet,
	EventGotSignal,
	EventConfChanged,
	EventConnBandwidth,
	EventCellStats,
	EventCircBandwidth,
	EventTransportLaunched,
	EventHSDesc,
	EventHSDescContent,
	EventNetworkLiveness,
}

// knownEventSet is the lookup form of KnownEvents.
var knownEventSet = func() map[string]bool {
	m := make(map[string]bool, len(KnownEvents))
	for _, name := range KnownEvents {
		m[name] = true
	}
	return m
}()

// IsKnownEvent reports whether name is an event this package
// recognizes. The comparison is exact; event names are upper case.
func IsKnownEvent(name string) bool {
	return knownEventSet[name]
}

// Signal names accepted by Signal and ShutdownTor, per control-spec
// section 3.7.
const (
	SignalReload        = "RELOAD"
	SignalShutdown      = "SHUTDOWN"
	SignalDump          = "DUMP"
	SignalDebug         = "DEBUG"
	SignalHalt          = "HALT"
	SignalNewNym        = "NEWNYM"
	SignalClearDNSCache = "CLEARDNSCACHE"
	SignalHeartbeat     = "HEARTBEAT"
	SignalActive        = "ACTIVE"
	SignalDormant       = "DORMANT"
)

// Signals lists the signal names Tor accepts.
var Signals = []string{
	SignalReload,
	SignalShutdown,
	SignalDump,
	SignalDebug,
	SignalHalt,
	SignalNewNym,
	SignalClearDNSCache,
	SignalHeartbeat,
	SignalActive,
	SignalDormant,
}

// Circuit status values delivered with CIRC events.
const (
	CircStatusLaunched = "LAUNCHED"
	CircStatusBuilt    = "BUILT"
	CircStatusExtended = "EXTENDED"
	CircStatusFailed   = "FAILED"
	CircStatusClosed   = "CLOSED"
)

// Stream status values delivered with STREAM events.
const (
	StreamStatusNew             = "NEW"
	StreamStatusNewResolve      = "NEWRESOLVE"
	StreamStatusRemap           = "REMAP"
	StreamStatusSentConnect     = "SENTCONNECT"
	StreamStatusSentResolve     = "SENTRESOLVE"
	StreamStatusSucceeded       = "SUCCEEDED"
	StreamStatusFailed          = "FAILED"
	StreamStatusClosed          = "CLOSED"
	StreamStatusDetached        = "DETACHED"
	StreamStatusFailedRetriable = "FAILED_RETRIABLE"
)

// OR connection status values delivered with ORCONN events.
const (
	ORConnStatusNew       = "NEW"
	ORConnStatusLaunched  = "LAUNCHED"
	ORConnStatusConnected = "CONNECTED"
	ORConnStatusFailed    = "FAILED"
	ORConnStatusClosed    = "CLOSED"
)
