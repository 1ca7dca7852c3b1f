// Package httpapi exposes the token pipeline over HTTP. Operation
// endpoints always answer 200 with the uniform result value; the HTTP
// status reflects request problems only, never on-chain failures.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carbonmint/internal/adapter/chainrpc"
	"carbonmint/internal/domain"
	"carbonmint/internal/usecase/deploy"
	"carbonmint/internal/usecase/infuse"
	"carbonmint/internal/usecase/mint"
	"carbonmint/internal/usecase/series"
)

// DeployService runs a token deployment end to end.
type DeployService interface {
	Deploy(ctx context.Context, input deploy.DeployInput) domain.Result
}

// MintService runs fungible and NFT mints end to end.
type MintService interface {
	MintFungible(ctx context.Context, input mint.MintFungibleInput) domain.Result
	MintNFT(ctx context.Context, input mint.MintNFTInput) domain.Result
}

// SeriesService opens NFT series end to end.
type SeriesService interface {
	CreateSeries(ctx context.Context, input series.CreateSeriesInput) domain.Result
}

// InfuseService runs batched infusion transfers end to end.
type InfuseService interface {
	Infuse(ctx context.Context, input infuse.InfuseInput) domain.Result
}

// Server routes HTTP requests to the pipeline orchestrators.
type Server struct {
	Deploy      DeployService
	Mint        MintService
	Series      SeriesService
	Infuse      InfuseService
	Chain       domain.ChainReader
	Submissions domain.SubmissionRepository // optional; nil disables history
	Logger      *slog.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(
	deployService DeployService,
	mintService MintService,
	seriesService SeriesService,
	infuseService InfuseService,
	chain domain.ChainReader,
	submissions domain.SubmissionRepository,
	logger *slog.Logger,
) *Server {
	return &Server{
		Deploy:      deployService,
		Mint:        mintService,
		Series:      seriesService,
		Infuse:      infuseService,
		Chain:       chain,
		Submissions: submissions,
		Logger:      logger,
	}
}

// Router assembles the gin engine. An empty authToken disables bearer
// auth; a nil registry disables the metrics endpoint.
func (s *Server) Router(authToken string, registry *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	if authToken != "" {
		v1.Use(BearerAuth(authToken))
	}

	tokens := v1.Group("/tokens")
	tokens.POST("/deploy", s.handleDeploy)
	tokens.POST("/mint", s.handleMintFungible)
	tokens.POST("/mint-nft", s.handleMintNFT)
	tokens.POST("/series", s.handleCreateSeries)
	tokens.POST("/infuse", s.handleInfuse)

	v1.GET("/transactions/:hash", s.handleGetTransaction)
	v1.GET("/accounts/:address", s.handleGetAccount)
	v1.GET("/submissions", s.handleListSubmissions)

	return router
}

type deployRequest struct {
	Owner     string `json:"owner"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	MaxSupply string `json:"maxSupply"`
	Decimals  uint32 `json:"decimals"`
	Fungible  bool   `json:"fungible"`
	Royalties string `json:"royalties"`
}

func (s *Server) handleDeploy(c *gin.Context) {
	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := s.Deploy.Deploy(c.Request.Context(), deploy.DeployInput{
		Owner:     req.Owner,
		Symbol:    req.Symbol,
		Name:      req.Name,
		MaxSupply: req.MaxSupply,
		Decimals:  req.Decimals,
		Fungible:  req.Fungible,
		Royalties: req.Royalties,
	})
	c.JSON(http.StatusOK, res)
}

type mintFungibleRequest struct {
	Minter    string `json:"minter"`
	Recipient string `json:"recipient"`
	Symbol    string `json:"symbol"`
	Amount    string `json:"amount"`
}

func (s *Server) handleMintFungible(c *gin.Context) {
	var req mintFungibleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := s.Mint.MintFungible(c.Request.Context(), mint.MintFungibleInput{
		Minter:    req.Minter,
		Recipient: req.Recipient,
		Symbol:    req.Symbol,
		Amount:    req.Amount,
	})
	c.JSON(http.StatusOK, res)
}

type mintNFTRequest struct {
	Minter    string            `json:"minter"`
	Recipient string            `json:"recipient"`
	Symbol    string            `json:"symbol"`
	SeriesID  string            `json:"seriesId"`
	Rom       map[string]string `json:"rom"`
	Ram       map[string]string `json:"ram"`
}

func (s *Server) handleMintNFT(c *gin.Context) {
	var req mintNFTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := s.Mint.MintNFT(c.Request.Context(), mint.MintNFTInput{
		Minter:    req.Minter,
		Recipient: req.Recipient,
		Symbol:    req.Symbol,
		SeriesID:  req.SeriesID,
		RomValues: req.Rom,
		RamValues: req.Ram,
	})
	c.JSON(http.StatusOK, res)
}

type createSeriesRequest struct {
	Owner     string `json:"owner"`
	Symbol    string `json:"symbol"`
	SeriesID  string `json:"seriesId"`
	MaxSupply string `json:"maxSupply"`
	Royalties string `json:"royalties"`
}

func (s *Server) handleCreateSeries(c *gin.Context) {
	var req createSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := s.Series.CreateSeries(c.Request.Context(), series.CreateSeriesInput{
		Owner:     req.Owner,
		Symbol:    req.Symbol,
		SeriesID:  req.SeriesID,
		MaxSupply: req.MaxSupply,
		Royalties: req.Royalties,
	})
	c.JSON(http.StatusOK, res)
}

type infuseRequest struct {
	Sender     string `json:"sender"`
	Recipient  string `json:"recipient"`
	Selections []struct {
		TokenID    string `json:"tokenId"`
		InstanceID string `json:"instanceId"`
	} `json:"selections"`
}

func (s *Server) handleInfuse(c *gin.Context) {
	var req infuseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := infuse.InfuseInput{
		Sender:    req.Sender,
		Recipient: req.Recipient,
	}
	for _, sel := range req.Selections {
		input.Selections = append(input.Selections, infuse.Selection{
			TokenID:    sel.TokenID,
			InstanceID: sel.InstanceID,
		})
	}

	res := s.Infuse.Infuse(c.Request.Context(), input)
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	hash := strings.TrimSpace(c.Param("hash"))
	record, err := s.Chain.GetTransaction(c.Request.Context(), hash)
	if err != nil {
		if errors.Is(err, chainrpc.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hash":    record.Hash,
		"state":   string(record.State),
		"result":  record.Result,
		"comment": record.DebugComment,
	})
}

func (s *Server) handleGetAccount(c *gin.Context) {
	address := strings.TrimSpace(c.Param("address"))
	account, err := s.Chain.GetAccount(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, chainrpc.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":  account.Address,
		"name":     account.Name,
		"balances": account.Balances,
	})
}

func (s *Server) handleListSubmissions(c *gin.Context) {
	if s.Submissions == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "submission history is not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must not be negative"})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))

	subs, err := s.Submissions.List(c.Request.Context(), limit, offset, symbol)
	if err != nil {
		s.logger().Error("listing submissions failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total, err := s.Submissions.Count(c.Request.Context(), symbol)
	if err != nil {
		s.logger().Error("counting submissions failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, 0, len(subs))
	for _, sub := range subs {
		items = append(items, gin.H{
			"id":        sub.ID.String(),
			"operation": sub.Operation,
			"symbol":    sub.Symbol,
			"txHash":    sub.TxHash,
			"status":    sub.Status,
			"error":     sub.Error,
			"createdAt": sub.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "submissions": items})
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
