package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"overlaysnow/core"
	"overlaysnow/events"
	"overlaysnow/handlers/api/analytics"
	"overlaysnow/handlers/api/cart"
	"overlaysnow/handlers/api/catalog"
	"overlaysnow/handlers/api/orders"
	"overlaysnow/handlers/auth"
	authMiddleware "overlaysnow/middleware"
	"overlaysnow/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func setupRouter(store stores.Store, assets core.AssetStore, hub *events.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Token", "session", "Origin", "Host", "Connection", "Accept-Encoding", "Accept-Language", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", auth.HandleRegister(store))
			r.Post("/login", auth.HandleLogin(store))
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.AuthJWT)
				r.Get("/me", auth.HandleMe(store))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalog.HandleListProducts(store))
			r.Get("/{id}", catalog.HandleGetProduct(store))
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.AuthJWT, authMiddleware.RequireAdmin)
				r.Post("/", catalog.HandleSaveProduct(store))
				r.Put("/{id}", catalog.HandleSaveProduct(store))
				r.Delete("/{id}", catalog.HandleDeleteProduct(store))
				r.Post("/{id}/image", catalog.HandleUploadProductImage(store, assets))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", catalog.HandleListCategories(store))
			r.Get("/{id}", catalog.HandleGetCategory(store))
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.AuthJWT, authMiddleware.RequireAdmin)
				r.Post("/", catalog.HandleSaveCategory(store))
				r.Put("/{id}", catalog.HandleSaveCategory(store))
				r.Delete("/{id}", catalog.HandleDeleteCategory(store))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Get("/", cart.HandleGet(store))
			r.Post("/items", cart.HandleAddItem(store))
			r.Put("/items/{itemId}", cart.HandleUpdateItem(store))
			r.Delete("/items/{itemId}", cart.HandleRemoveItem(store))
			r.Delete("/clear", cart.HandleClear(store))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Post("/", orders.HandleCreate(store, hub))
			r.Get("/", orders.HandleList(store))
			r.Get("/{id}", orders.HandleGet(store))
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAdmin)
				r.Put("/{id}/status", orders.HandleUpdateStatus(store))
			})
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT, authMiddleware.RequireAdmin)
			r.Get("/sales", analytics.HandleSales(store))
			r.Get("/best-sellers", analytics.HandleBestSellers(store))
		})
	})

	r.Get("/assets/{key}", catalog.HandleGetAsset(assets))

	r.Route("/auth/sso", func(r chi.Router) {
		r.Get("/login", auth.HandleSSOLogin)
		r.Get("/callback", auth.HandleSSOCallback(store))
	})

	return r
}

func waitForShutdown(ioo *socketio.Server) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	ioo.Close(nil)
	os.Exit(0)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":8000", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()
	store := stores.GetStore()
	assets := stores.GetAssetStore()

	hub := events.NewHub()
	r := setupRouter(store, assets, hub)

	ioo := events.NewSocketServer(hub)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo)
}
