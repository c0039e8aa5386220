package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 16
	lookupTimeout  = 5 * time.Second

	// EventOrderUpdated is the event name of every order push.
	EventOrderUpdated = "orderUpdated"
)

// Message is the frame pushed to subscribers.
type Message struct {
	Event string        `json:"event"`
	Order *models.Order `json:"order"`
}

// roomRequest is sent by clients to change their subscriptions.
type roomRequest struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// OrderRoom is the room that follows a single order.
func OrderRoom(orderID primitive.ObjectID) string {
	return "order:" + orderID.Hex()
}

// UserRoom is the room that follows every order of a user.
func UserRoom(userID primitive.ObjectID) string {
	return "user:" + userID.Hex()
}

func validRoom(room string) bool {
	for _, prefix := range []string{"order:", "user:"} {
		if id, ok := strings.CutPrefix(room, prefix); ok {
			_, err := primitive.ObjectIDFromHex(id)
			return err == nil
		}
	}
	return false
}

var errNoToken = errors.New("access token missing")

// TokenParser verifies access tokens.
type TokenParser interface {
	ParseJWT(tokenStr string) (*utils.Claims, error)
}

// OrderFinder loads the order behind an order room.
type OrderFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
}

// Config wires the hub to authentication and order ownership.
type Config struct {
	Tokens TokenParser
	Orders OrderFinder
	// AllowedOrigins lists browser origins accepted besides the server's own.
	AllowedOrigins []string
}

type client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	userID    primitive.ObjectID
	admin     bool
}

// Hub fans order updates out to websocket clients grouped in rooms.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	tokens   TokenParser
	orders   OrderFinder
	origins  map[string]struct{}
	log      *zap.Logger
}

func NewHub(cfg Config, log *zap.Logger) *Hub {
	h := &Hub{
		rooms:   make(map[string]map[*client]struct{}),
		clients: make(map[*client]struct{}),
		tokens:  cfg.Tokens,
		orders:  cfg.Orders,
		origins: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		log:     log,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimRight(origin, "/"); origin != "" {
			h.origins[origin] = struct{}{}
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ServeWS authenticates the caller, upgrades the request and subscribes the
// connection to every "room" query parameter the caller may follow. The
// access token comes from the Authorization header or the "token" query
// parameter, since browsers cannot set headers on websocket requests.
// Clients may join or leave rooms later by sending
// {"action":"join"|"leave","room":"..."}.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims, err := h.authenticate(r)
	if err != nil {
		h.log.Debug("websocket authentication failed", zap.Error(err))
		utils.RespondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	userID, _ := claims.ObjectID()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		admin:  claims.IsAdmin(),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	for _, room := range r.URL.Query()["room"] {
		ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
		if !h.join(ctx, c, room) {
			h.log.Debug("rejected websocket room", zap.String("room", room), zap.String("user_id", userID.Hex()))
		}
		cancel()
	}

	go c.writePump()
	c.readPump()
}

// NotifyOrder pushes the order to its order room and its owner's room.
// Clients subscribed to both receive it once.
func (h *Hub) NotifyOrder(order *models.Order) {
	data, err := json.Marshal(Message{Event: EventOrderUpdated, Order: order})
	if err != nil {
		h.log.Error("failed to encode order push", zap.String("order_id", order.ID.Hex()), zap.Error(err))
		return
	}
	h.broadcast(data, OrderRoom(order.ID), UserRoom(order.UserID))
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) broadcast(data []byte, rooms ...string) {
	var slow []*client
	seen := make(map[*client]struct{})

	h.mu.RLock()
	for _, room := range rooms {
		for c := range h.rooms[room] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			select {
			case c.send <- data:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow websocket client")
		h.remove(c)
	}
}

func (h *Hub) authenticate(r *http.Request) (*utils.Claims, error) {
	if h.tokens == nil {
		return nil, errNoToken
	}
	token := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return nil, errors.New("invalid authorization header format")
		}
		token = parts[1]
	}
	if token == "" {
		return nil, errNoToken
	}
	claims, err := h.tokens.ParseJWT(token)
	if err != nil {
		return nil, err
	}
	if _, err := claims.ObjectID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// checkOrigin accepts requests without an Origin header, from the server's
// own host, or from one of the configured origins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins[strings.TrimRight(origin, "/")]; ok {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// mayFollow reports whether c may subscribe to room. Admins follow any
// room; users follow their own user room and the rooms of orders they own.
func (h *Hub) mayFollow(ctx context.Context, c *client, room string) bool {
	if c.admin {
		return true
	}
	if id, ok := strings.CutPrefix(room, "user:"); ok {
		return id == c.userID.Hex()
	}
	id, ok := strings.CutPrefix(room, "order:")
	if !ok || h.orders == nil {
		return false
	}
	orderID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false
	}
	order, err := h.orders.FindByID(ctx, orderID)
	if err != nil {
		h.log.Debug("order room lookup failed", zap.String("room", room), zap.Error(err))
		return false
	}
	return order.UserID == c.userID
}

func (h *Hub) join(ctx context.Context, c *client, room string) bool {
	if !validRoom(room) || !h.mayFollow(ctx, c, room) {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	return true
}

func (h *Hub) leave(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *client, room string) {
	members := h.rooms[room]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// remove unsubscribes c everywhere and closes its connection. The send
// channel is closed only after c is unreachable from any room.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	for room, members := range h.rooms {
		if _, ok := members[c]; ok {
			h.leaveLocked(c, room)
		}
	}
	h.mu.Unlock()

	c.closeOnce.Do(func() {
		close(c.send)
	})
}

func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var req roomRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		switch req.Action {
		case "join":
			ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
			if !c.hub.join(ctx, c, req.Room) {
				c.hub.log.Debug("rejected websocket room", zap.String("room", req.Room), zap.String("user_id", c.userID.Hex()))
			}
			cancel()
		case "leave":
			c.hub.leave(c, req.Room)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
