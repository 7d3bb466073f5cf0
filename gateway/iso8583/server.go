package iso8583

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/alovak/crypto-pos-gateway/internal/expiry"
	"github.com/alovak/crypto-pos-gateway/internal/field39"
	moovISO8583 "github.com/moov-io/iso8583"
	"golang.org/x/exp/slog"
)

// Processor is implemented by the gateway's transaction orchestrator.
type Processor interface {
	Process(ctx context.Context, req models.TransactionRequest) models.TransactionOutcome
}

// Server terminates ISO 8583 connections for terminals that speak binary
// instead of JSON. One goroutine per connection; requests on a connection
// are handled sequentially.
type Server struct {
	logger     *slog.Logger
	Addr       string
	addr       string
	processor  Processor
	terminalID string
	merchantID string

	ln      net.Listener
	wg      sync.WaitGroup
	closing chan struct{}
}

func NewServer(logger *slog.Logger, addr string, processor Processor, terminalID, merchantID string) *Server {
	return &Server{
		logger:     logger.With(slog.String("component", "iso8583-server")),
		addr:       addr,
		processor:  processor,
		terminalID: terminalID,
		merchantID: merchantID,
		closing:    make(chan struct{}),
	}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening tcp port: %w", err)
	}
	s.ln = ln
	s.Addr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("iso8583 server started", slog.String("addr", s.Addr))

		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-s.closing:
					return
				default:
					s.logger.Error("accepting connection", "err", err)
					return
				}
			}

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handleConnection(conn)
			}()
		}
	}()

	return nil
}

func (s *Server) Close() error {
	close(s.closing)
	err := s.ln.Close()
	s.wg.Wait()
	s.logger.Info("iso8583 server stopped")
	return err
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	for {
		length, err := ReadMessageLength(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !isClosedConn(err) {
				s.logger.Error("reading message length", "err", err)
			}
			return
		}

		raw := make([]byte, length)
		if _, err := io.ReadFull(conn, raw); err != nil {
			s.logger.Error("reading message body", "err", err)
			return
		}

		response, err := s.handleMessage(raw)
		if err != nil {
			s.logger.Error("handling message", "err", err)
			return
		}

		packed, err := response.Pack()
		if err != nil {
			s.logger.Error("packing response", "err", err)
			return
		}
		if _, err := WriteMessageLength(conn, len(packed)); err != nil {
			s.logger.Error("writing response length", "err", err)
			return
		}
		if _, err := conn.Write(packed); err != nil {
			s.logger.Error("writing response", "err", err)
			return
		}
	}
}

func (s *Server) handleMessage(raw []byte) (*moovISO8583.Message, error) {
	request := moovISO8583.NewMessage(Spec)
	if err := request.Unpack(raw); err != nil {
		return nil, fmt.Errorf("unpacking request: %w", err)
	}

	mti, err := request.GetMTI()
	if err != nil {
		return nil, fmt.Errorf("reading MTI: %w", err)
	}

	stan, _ := request.GetString(11)

	if mti != "0200" {
		// Unknown message class for this endpoint.
		return s.buildResponse(stan, models.TransactionOutcome{
			Status:  models.StatusRejected,
			Message: field39.Message(field39.InvalidProtocol),
			Field39: field39.InvalidProtocol,
		})
	}

	req := s.transactionRequest(request)
	outcome := s.processor.Process(context.Background(), req)
	return s.buildResponse(stan, outcome)
}

// transactionRequest maps the 0200 fields onto the core request value.
// Anything missing or unparsable stays zero and is named by the decision
// engine's validation, so the terminal still gets a proper "99".
func (s *Server) transactionRequest(request *moovISO8583.Message) models.TransactionRequest {
	req := models.TransactionRequest{}

	req.PAN, _ = request.GetString(2)

	if amount, err := request.GetString(4); err == nil {
		if minor, err := strconv.ParseInt(amount, 10, 64); err == nil {
			req.Amount = minor
		}
	}

	if yymm, err := request.GetString(14); err == nil {
		if mmyy, err := expiry.YYMMToMMYY(yymm); err == nil {
			req.Expiry = mmyy
		}
	}

	if code, err := request.GetString(49); err == nil {
		req.Currency = currencyFromISO(code)
	}

	if descriptor, err := request.GetString(48); err == nil {
		cvv, network, wallet := parsePayoutDescriptor(descriptor)
		req.CVV = cvv
		req.Wallet = wallet
		if n, err := models.ParseNetwork(network); err == nil {
			req.Network = n
		}
	}

	return req
}

func (s *Server) buildResponse(stan string, outcome models.TransactionOutcome) (*moovISO8583.Message, error) {
	response := moovISO8583.NewMessage(Spec)
	response.MTI("0210")
	if stan != "" {
		if err := response.Field(11, stan); err != nil {
			return nil, err
		}
	}
	if arn := arnDigits(outcome.ARN); arn != "" {
		if err := response.Field(37, arn); err != nil {
			return nil, err
		}
	}
	if err := response.Field(39, outcome.Field39); err != nil {
		return nil, err
	}
	if err := response.Field(41, fmt.Sprintf("%-8s", s.terminalID)); err != nil {
		return nil, err
	}
	if err := response.Field(42, fmt.Sprintf("%-15s", s.merchantID)); err != nil {
		return nil, err
	}
	detail := fmt.Sprintf("%s|%s|%s", outcome.Status, outcome.TransactionID, outcome.PayoutTxHash)
	if err := response.Field(63, detail); err != nil {
		return nil, err
	}
	return response, nil
}

// parsePayoutDescriptor splits the DE48 payload. Format:
// "CVV2=nnn;NET=ERC20[;WALLET=addr]", order-insensitive.
func parsePayoutDescriptor(descriptor string) (cvv, network, wallet string) {
	for _, part := range strings.Split(descriptor, ";") {
		k, v, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(k)) {
		case "CVV2":
			cvv = strings.TrimSpace(v)
		case "NET":
			network = strings.TrimSpace(v)
		case "WALLET":
			wallet = strings.TrimSpace(v)
		}
	}
	return cvv, network, wallet
}

func currencyFromISO(code string) models.Currency {
	switch code {
	case "840":
		return models.CurrencyUSD
	case "978":
		return models.CurrencyEUR
	default:
		// Leave unknown codes invalid; validation reports the field.
		return models.Currency("")
	}
}

// arnDigits strips the ARN prefix for DE37, which is digits only.
func arnDigits(arn string) string {
	return strings.TrimPrefix(arn, "ARN")
}

func isClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
