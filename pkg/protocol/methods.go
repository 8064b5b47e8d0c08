package protocol

// RPC method names.
const (
	MethodConnect = "connect"
	MethodHealth  = "health"
	MethodStatus  = "status"

	MethodTtsStatus      = "tts.status"
	MethodTtsEnable      = "tts.enable"
	MethodTtsDisable     = "tts.disable"
	MethodTtsConvert     = "tts.convert"
	MethodTtsSetProvider = "tts.setProvider"
	MethodTtsProviders   = "tts.providers"

	MethodConfigGet   = "config.get"
	MethodConfigPatch = "config.patch"
)

// Event names pushed to connected clients.
const (
	EventTtsState     = "tts.state"     // preference mutation (enabled, provider)
	EventConfigReload = "config.reload" // config applied via patch or hot reload
	EventMessageDone  = "message.done"  // one inbound message fully processed
)
