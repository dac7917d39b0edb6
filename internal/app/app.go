package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/cache"
	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/database"
	"github.com/Additional-Code/storefront/internal/logger"
	"github.com/Additional-Code/storefront/internal/messaging"
	"github.com/Additional-Code/storefront/internal/observability"
	repositoryproduct "github.com/Additional-Code/storefront/internal/repository/product"
	repositorypurchase "github.com/Additional-Code/storefront/internal/repository/purchase"
	repositoryseller "github.com/Additional-Code/storefront/internal/repository/seller"
	grpcserver "github.com/Additional-Code/storefront/internal/server/grpc"
	httpserver "github.com/Additional-Code/storefront/internal/server/http"
	serviceproduct "github.com/Additional-Code/storefront/internal/service/product"
	servicepurchase "github.com/Additional-Code/storefront/internal/service/purchase"
	serviceseller "github.com/Additional-Code/storefront/internal/service/seller"
	transporthttp "github.com/Additional-Code/storefront/internal/transport/http"
	"github.com/Additional-Code/storefront/internal/worker"
	workerpurchase "github.com/Additional-Code/storefront/internal/worker/purchase"
)

// Storage provides configuration, logging and the database pools. Tooling
// commands that only touch the schema or seed data run on it.
var Storage = fx.Options(
	config.Module,
	logger.Module,
	database.Module,
)

// Infra adds cache, messaging and telemetry to Storage.
var Infra = fx.Options(
	Storage,
	cache.Module,
	messaging.Module,
	observability.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Infra,
	auth.Module,
	repositoryseller.Module,
	repositoryproduct.Module,
	repositorypurchase.Module,
	serviceseller.Module,
	serviceproduct.Module,
	servicepurchase.Module,
)

// HTTP wires the HTTP transport and the gRPC health server on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerpurchase.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
