package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/themodeller/modeller/pkg/diagfile"
	"github.com/themodeller/modeller/pkg/store"
)

// diagramBody is the request shape for create and update.
type diagramBody struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

func cmdServe(args []string) {
	for _, a := range args {
		if a == "-h" || a == "--help" {
			fmt.Println("Usage: modeller serve")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (in-memory store when unset)")
			fmt.Println("  LISTEN_ADDR   listen address (default :3000)")
			return
		}
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	var st store.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()

		pg := store.NewPGStore(pool)
		if err := pg.CreateSchema(context.Background()); err != nil {
			log.Fatalf("create schema: %v", err)
		}
		st = pg
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		st = store.NewMemStore()
	}

	log.Fatal(newServer(st).Listen(addr))
}

func newServer(st store.Store) *fiber.App {
	app := fiber.New()

	app.Post("/diagrams", func(c fiber.Ctx) error {
		var body diagramBody
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		rec := &store.DiagramRecord{Name: body.Name, Document: body.Document}
		if err := st.SaveDiagram(c.Context(), rec); err != nil {
			return storeError(c, err)
		}
		return c.Status(201).JSON(fiber.Map{"id": rec.ID})
	})

	app.Get("/diagrams", func(c fiber.Ctx) error {
		infos, err := st.ListDiagrams(c.Context())
		if err != nil {
			return storeError(c, err)
		}
		if infos == nil {
			infos = []store.DiagramInfo{}
		}
		return c.JSON(infos)
	})

	app.Get("/diagrams/:id", func(c fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid diagram id"})
		}
		rec, err := st.GetDiagram(c.Context(), id)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(fiber.Map{
			"id":         rec.ID,
			"name":       rec.Name,
			"document":   json.RawMessage(rec.Document),
			"created_at": rec.CreatedAt,
			"updated_at": rec.UpdatedAt,
		})
	})

	app.Put("/diagrams/:id", func(c fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid diagram id"})
		}
		var body diagramBody
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		// Update is only valid against an existing record.
		if _, err := st.GetDiagram(c.Context(), id); err != nil {
			return storeError(c, err)
		}
		rec := &store.DiagramRecord{ID: id, Name: body.Name, Document: body.Document}
		if err := st.SaveDiagram(c.Context(), rec); err != nil {
			return storeError(c, err)
		}
		return c.SendStatus(204)
	})

	app.Delete("/diagrams/:id", func(c fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid diagram id"})
		}
		if err := st.DeleteDiagram(c.Context(), id); err != nil {
			return storeError(c, err)
		}
		return c.SendStatus(204)
	})

	app.Get("/diagrams/:id/html", func(c fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid diagram id"})
		}
		rec, err := st.GetDiagram(c.Context(), id)
		if err != nil {
			return storeError(c, err)
		}
		opts := diagfile.DefaultHTMLOptions()
		if rec.Name != "" {
			opts.Title = rec.Name
		}
		page, err := diagfile.GenerateHTML(rec.Document, opts)
		if err != nil {
			return storeError(c, err)
		}
		c.Type("html")
		return c.SendString(page)
	})

	return app
}

// storeError maps store and document failures onto HTTP statuses.
func storeError(c fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrDiagramNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "diagram not found"})
	}
	var lerr *diagfile.LoadError
	if errors.As(err, &lerr) {
		return c.Status(400).JSON(fiber.Map{
			"error":      "invalid design document",
			"violations": lerr.Violations,
		})
	}
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}
