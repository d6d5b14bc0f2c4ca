package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oceanbook/matching-engine/pkg/model"
)

// commandType is the TYPE token in a wire message TYPE|PAYLOAD\n.
type commandType string

const (
	cmdSubmitOrder     commandType = "SUBMIT_ORDER"
	cmdCancelOrder     commandType = "CANCEL_ORDER"
	cmdModifyOrder     commandType = "MODIFY_ORDER"
	cmdGetBestBid      commandType = "GET_BEST_BID"
	cmdGetBestAsk      commandType = "GET_BEST_ASK"
	cmdGetSpread       commandType = "GET_SPREAD"
	cmdGetMarketDepth  commandType = "GET_MARKET_DEPTH"
)

// command is a parsed request line. Only the fields relevant to typ
// are populated; this package never hands core types raw strings, it
// hands them a fully parsed model.Order or the individual scalars a
// query needs.
type command struct {
	typ      commandType
	order    model.Order
	symbol   string
	orderID  model.OrderID
	price    decimal.Decimal
	quantity uint64
	levels   int
}

// parseLine parses one TYPE|PAYLOAD line (trailing \n already
// stripped) into a command. The transport owns framing; this function
// only owns the payload grammar.
func parseLine(line string) (command, error) {
	typ, payload, found := strings.Cut(line, "|")
	if !found {
		return command{}, fmt.Errorf("malformed line, expected TYPE|PAYLOAD")
	}

	switch commandType(typ) {
	case cmdSubmitOrder:
		return parseSubmitOrder(payload)
	case cmdCancelOrder:
		return parseCancelOrder(payload)
	case cmdModifyOrder:
		return parseModifyOrder(payload)
	case cmdGetBestBid:
		return command{typ: cmdGetBestBid, symbol: payload}, nil
	case cmdGetBestAsk:
		return command{typ: cmdGetBestAsk, symbol: payload}, nil
	case cmdGetSpread:
		return command{typ: cmdGetSpread, symbol: payload}, nil
	case cmdGetMarketDepth:
		return parseGetMarketDepth(payload)
	default:
		return command{}, fmt.Errorf("unknown message type %q", typ)
	}
}

func parseSubmitOrder(payload string) (command, error) {
	fields := strings.Split(payload, ",")
	if len(fields) != 6 {
		return command{}, fmt.Errorf("SUBMIT_ORDER expects 6 fields, got %d", len(fields))
	}
	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return command{}, fmt.Errorf("bad id: %w", err)
	}
	symbol := fields[1]
	side, err := parseWireSide(fields[2])
	if err != nil {
		return command{}, err
	}
	kind, err := parseWireKind(fields[3])
	if err != nil {
		return command{}, err
	}
	price := decimal.Zero
	if kind == model.Limit {
		price, err = decimal.NewFromString(fields[4])
		if err != nil {
			return command{}, fmt.Errorf("bad price: %w", err)
		}
	}
	qty, err := strconv.ParseUint(fields[5], 10, 64)
	if err != nil {
		return command{}, fmt.Errorf("bad quantity: %w", err)
	}
	return command{
		typ:   cmdSubmitOrder,
		order: model.New(model.OrderID(id), symbol, side, kind, price, qty),
	}, nil
}

func parseCancelOrder(payload string) (command, error) {
	fields := strings.Split(payload, ",")
	if len(fields) != 2 {
		return command{}, fmt.Errorf("CANCEL_ORDER expects 2 fields, got %d", len(fields))
	}
	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return command{}, fmt.Errorf("bad id: %w", err)
	}
	return command{typ: cmdCancelOrder, orderID: model.OrderID(id), symbol: fields[1]}, nil
}

func parseModifyOrder(payload string) (command, error) {
	fields := strings.Split(payload, ",")
	if len(fields) != 4 {
		return command{}, fmt.Errorf("MODIFY_ORDER expects 4 fields, got %d", len(fields))
	}
	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return command{}, fmt.Errorf("bad id: %w", err)
	}
	price, err := decimal.NewFromString(fields[2])
	if err != nil {
		return command{}, fmt.Errorf("bad price: %w", err)
	}
	qty, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return command{}, fmt.Errorf("bad quantity: %w", err)
	}
	return command{
		typ:      cmdModifyOrder,
		orderID:  model.OrderID(id),
		symbol:   fields[1],
		price:    price,
		quantity: qty,
	}, nil
}

func parseGetMarketDepth(payload string) (command, error) {
	fields := strings.Split(payload, ",")
	if len(fields) != 2 {
		return command{}, fmt.Errorf("GET_MARKET_DEPTH expects 2 fields, got %d", len(fields))
	}
	levels, err := strconv.Atoi(fields[1])
	if err != nil {
		return command{}, fmt.Errorf("bad levels: %w", err)
	}
	return command{typ: cmdGetMarketDepth, symbol: fields[0], levels: levels}, nil
}

func parseWireSide(v string) (model.Side, error) {
	switch v {
	case "0":
		return model.Buy, nil
	case "1":
		return model.Sell, nil
	default:
		return 0, fmt.Errorf("side must be 0 (BUY) or 1 (SELL), got %q", v)
	}
}

func parseWireKind(v string) (model.Kind, error) {
	switch v {
	case "0":
		return model.Market, nil
	case "1":
		return model.Limit, nil
	default:
		return 0, fmt.Errorf("kind must be 0 (MARKET) or 1 (LIMIT), got %q", v)
	}
}
