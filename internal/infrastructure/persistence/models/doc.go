// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - cart.go: Cart with line items, shipping methods and payment sessions
// - order.go: Orders, order sets and payment transactions
// - seller.go, link.go: Sellers and cross-module link records
// - commission.go: Commission rates and commission lines
// - saga.go: Append-only saga journal
// - inventory.go: Stock levels and reservations used by the default inventory adapter
// - outbox.go: Outbox pattern model for event delivery
package models
