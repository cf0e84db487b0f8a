// Package transform defines the contextual text actions and the services
// that run them.
//
// ActionType is a closed enum; every switch over it is exhaustive. A Service
// turns a Request (selected text, action, optional instruction and model
// hint) into a Result. HTTPService calls an inkwell-server, OpenAIService
// talks to a chat completions API directly, and MockService answers offline.
package transform
