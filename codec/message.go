// file: gate/codec/message.go
package codec

// ClientMessage is a frame sent from a client to the gateway.
// The set of variants is closed; dispatch sites switch exhaustively.
type ClientMessage interface {
	clientMessage()
}

// ServerMessage is a frame sent from the gateway to a client.
type ServerMessage interface {
	serverMessage()
}

//---------------------
// Client variants
//---------------------

// Auth carries a bearer token for the authentication handshake.
type Auth struct {
	Token string
}

// Subscribe registers interest in a subject under a client-chosen id.
type Subscribe struct {
	Subject string
	ID      uint64
}

// Unsubscribe cancels the subscription with the given id.
type Unsubscribe struct {
	ID uint64
}

// Publish sends an opaque payload to a subject.
type Publish struct {
	Subject string
	Payload []byte
}

// Request issues a request/reply call with a per-request timeout.
type Request struct {
	Subject   string
	Payload   []byte
	TimeoutMS uint32
	RequestID uint64
}

// Ping is a keepalive probe; it never requires authentication.
type Ping struct{}

func (Auth) clientMessage()        {}
func (Subscribe) clientMessage()   {}
func (Unsubscribe) clientMessage() {}
func (Publish) clientMessage()     {}
func (Request) clientMessage()     {}
func (Ping) clientMessage()        {}

//---------------------
// Server variants
//---------------------

type AuthOk struct {
	SessionID string
}

type AuthError struct {
	Reason string
}

type SubscribeOk struct {
	ID uint64
}

type SubscribeError struct {
	ID     uint64
	Reason string
}

// Message is a bus delivery fanned out to the owning subscription.
type Message struct {
	SubscriptionID uint64
	Subject        string
	Payload        []byte
}

type Response struct {
	RequestID uint64
	Payload   []byte
}

type RequestError struct {
	RequestID uint64
	Reason    string
}

// Error is the generic protocol error with an HTTP-like code.
type Error struct {
	Code    uint32
	Message string
}

type Pong struct{}

func (AuthOk) serverMessage()         {}
func (AuthError) serverMessage()      {}
func (SubscribeOk) serverMessage()    {}
func (SubscribeError) serverMessage() {}
func (Message) serverMessage()        {}
func (Response) serverMessage()       {}
func (RequestError) serverMessage()   {}
func (Error) serverMessage()          {}
func (Pong) serverMessage()           {}

//---------------------
// Error codes
//---------------------

const (
	CodeInvalidMessage uint32 = 400
	CodeUnauthorized   uint32 = 401
	CodeForbidden      uint32 = 403
	CodeNotFound       uint32 = 404
	CodeInternalError  uint32 = 500
)

// RequiresAuth reports whether the frame may only be dispatched on an
// authenticated connection. Auth and Ping are the two exceptions.
func RequiresAuth(msg ClientMessage) bool {
	switch msg.(type) {
	case Auth, Ping:
		return false
	default:
		return true
	}
}
