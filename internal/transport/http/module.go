package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/Additional-Code/mercury/internal/transport/http/order"
	producttransport "github.com/Additional-Code/mercury/internal/transport/http/product"
	reporttransport "github.com/Additional-Code/mercury/internal/transport/http/report"
	usertransport "github.com/Additional-Code/mercury/internal/transport/http/user"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	usertransport.Module,
	producttransport.Module,
	ordertransport.Module,
	reporttransport.Module,
)
