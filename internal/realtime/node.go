package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/centrifugal/centrifuge"
	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/auth"
)

// Node is the centrifuge transport in front of the hub. Clients authenticate
// with an access token at connect, subscribe to their own user channel for
// outbound events, and send inbound events as RPCs (method = event name,
// data = JSON payload).
type Node struct {
	node *centrifuge.Node
	hub  *Hub
}

func NewNode(tokenService *auth.TokenService, hub *Hub) (*Node, error) {
	node, err := centrifuge.New(centrifuge.Config{
		LogLevel:   centrifuge.LogLevelInfo,
		LogHandler: func(e centrifuge.LogEntry) { log.Printf("[centrifuge] %s: %v", e.Message, e.Fields) },
	})
	if err != nil {
		return nil, err
	}

	n := &Node{node: node, hub: hub}
	hub.sink = n

	// Auth via JWT in connect request
	node.OnConnecting(func(ctx context.Context, e centrifuge.ConnectEvent) (centrifuge.ConnectReply, error) {
		if e.Token == "" {
			return centrifuge.ConnectReply{}, centrifuge.DisconnectInvalidToken
		}

		claims, err := tokenService.ValidateAccessToken(e.Token)
		if err != nil {
			return centrifuge.ConnectReply{}, centrifuge.DisconnectInvalidToken
		}

		return centrifuge.ConnectReply{
			Credentials: &centrifuge.Credentials{
				UserID: claims.UserID.String(),
			},
		}, nil
	})

	node.OnConnect(func(client *centrifuge.Client) {
		log.Printf("Client connected: %s (user: %s)", client.ID(), client.UserID())

		client.OnSubscribe(func(e centrifuge.SubscribeEvent, cb centrifuge.SubscribeCallback) {
			if e.Channel != "user:"+client.UserID() {
				cb(centrifuge.SubscribeReply{}, centrifuge.ErrorPermissionDenied)
				return
			}
			cb(centrifuge.SubscribeReply{}, nil)
		})

		client.OnRPC(func(e centrifuge.RPCEvent, cb centrifuge.RPCCallback) {
			// sendMessage is the only event with a meaningful reply: the
			// persisted message. Everything else is fire-and-forget and is
			// acknowledged as soon as it is queued.
			if e.Method == EventSendMessage {
				n.hub.HandleRPC(client.ID(), e.Method, e.Data, func(data []byte, err error) {
					if err != nil {
						cb(centrifuge.RPCReply{}, centrifuge.ErrorInternal)
						return
					}
					cb(centrifuge.RPCReply{Data: data}, nil)
				})
				return
			}

			n.hub.HandleRPC(client.ID(), e.Method, e.Data, nil)
			cb(centrifuge.RPCReply{}, nil)
		})

		client.OnDisconnect(func(e centrifuge.DisconnectEvent) {
			log.Printf("Client disconnected: %s (reason: %s)", client.ID(), e.Reason)
			n.hub.HandleDisconnect(client.ID())
		})
	})

	if err := node.Run(); err != nil {
		return nil, err
	}

	return n, nil
}

func (n *Node) Shutdown(ctx context.Context) error {
	return n.node.Shutdown(ctx)
}

func (n *Node) WebsocketHandler() http.Handler {
	return centrifuge.NewWebsocketHandler(n.node, centrifuge.WebsocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	})
}

// Publish implements EventSink. The hub has already checked presence; this
// just puts the framed event on the user's channel.
func (n *Node) Publish(userID uuid.UUID, event string, data any) error {
	payload, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return err
	}

	_, err = n.node.Publish("user:"+userID.String(), payload)
	return err
}
