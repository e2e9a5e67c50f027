package httpapi

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"matchd/domain/orderbook"
)

type placeRequest struct {
	Type  string `json:"type"`
	Side  string `json:"side"`
	Peg   string `json:"peg"`
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
}

type modifyRequest struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

func (s *Server) registerRoutes() {
	s.app.Post("/orders", s.handlePlace)
	s.app.Delete("/orders/:id", s.handleCancel)
	s.app.Patch("/orders/:id", s.handleModify)
	s.app.Get("/book", s.handleBook)
	s.app.Post("/admin/snapshot", s.handleDumpSnapshot)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.hub.Handler))
}

func (s *Server) handlePlace(c *fiber.Ctx) error {
	var body placeRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed body")
	}

	otype, err := orderbook.ParseOrderType(body.Type)
	if err != nil {
		return badRequest(c, err.Error())
	}
	side, err := orderbook.ParseSide(body.Side)
	if err != nil {
		return badRequest(c, err.Error())
	}
	peg, err := orderbook.ParsePegType(body.Peg)
	if err != nil {
		return badRequest(c, err.Error())
	}

	events := s.svc.PlaceOrder(orderbook.OrderRequest{
		Type:  otype,
		Side:  side,
		Peg:   peg,
		Price: body.Price,
		Qty:   body.Qty,
	})

	s.log.Debug("place handled",
		zap.Any("req_id", c.Locals("reqID")),
		zap.Int("events", len(events)),
	)

	return c.JSON(fiber.Map{"events": events})
}

func (s *Server) handleCancel(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "malformed order id")
	}

	o, err := s.svc.CancelOrder(id)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"cancelled": fiber.Map{
			"id":    o.ID,
			"side":  o.Side.String(),
			"price": o.Price,
			"qty":   o.Qty,
		},
	})
}

func (s *Server) handleModify(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "malformed order id")
	}

	var body modifyRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "malformed body")
	}

	o, err := s.svc.ModifyOrder(id, body.Price, body.Qty)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(fiber.Map{
		"modified": fiber.Map{
			"id":    o.ID,
			"side":  o.Side.String(),
			"price": o.Price,
			"qty":   o.Qty,
			"seq":   o.Seq,
		},
	})
}

func (s *Server) handleBook(c *fiber.Ctx) error {
	return c.JSON(s.svc.Book())
}

func (s *Server) handleDumpSnapshot(c *fiber.Ctx) error {
	if err := s.svc.DumpSnapshot(s.snap); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func mapDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, orderbook.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, orderbook.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
