package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/mercury/internal/cache"
	"github.com/Additional-Code/mercury/internal/config"
	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/logger"
	"github.com/Additional-Code/mercury/internal/messaging"
	"github.com/Additional-Code/mercury/internal/observability"
	repositoryaddress "github.com/Additional-Code/mercury/internal/repository/address"
	repositoryorder "github.com/Additional-Code/mercury/internal/repository/order"
	repositoryproduct "github.com/Additional-Code/mercury/internal/repository/product"
	repositoryreport "github.com/Additional-Code/mercury/internal/repository/report"
	repositoryuser "github.com/Additional-Code/mercury/internal/repository/user"
	"github.com/Additional-Code/mercury/internal/scheduler"
	httpserver "github.com/Additional-Code/mercury/internal/server/http"
	serviceorder "github.com/Additional-Code/mercury/internal/service/order"
	serviceproduct "github.com/Additional-Code/mercury/internal/service/product"
	servicereport "github.com/Additional-Code/mercury/internal/service/report"
	serviceuser "github.com/Additional-Code/mercury/internal/service/user"
	transporthttp "github.com/Additional-Code/mercury/internal/transport/http"
	"github.com/Additional-Code/mercury/internal/worker"
	workerorder "github.com/Additional-Code/mercury/internal/worker/order"
	workerproduct "github.com/Additional-Code/mercury/internal/worker/product"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryuser.Module,
	repositoryaddress.Module,
	repositoryproduct.Module,
	repositoryorder.Module,
	repositoryreport.Module,
	serviceuser.Module,
	serviceproduct.Module,
	serviceorder.Module,
	servicereport.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing and the report scheduler.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerproduct.Module,
	workerorder.Module,
	scheduler.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
