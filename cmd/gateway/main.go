// Command gateway is a line-framed TCP listener over an *engine.Engine:
// TYPE|PAYLOAD\n requests in, TYPE|PAYLOAD\n responses out.
// Symbols/prices/quantities never travel past protocol.go as raw
// strings; every other package only ever sees parsed core types.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/oceanbook/matching-engine/pkg/config"
	"github.com/oceanbook/matching-engine/pkg/engine"
	"github.com/oceanbook/matching-engine/pkg/logging"
	"github.com/oceanbook/matching-engine/pkg/model"
)

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	symbols := flag.String("symbols", "AAPL", "comma-separated symbols to pre-register")
	cfg := config.Default()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	cfg.EnvOverride()

	log := logging.New(cfg.EnableLogging)
	eng := engine.New(cfg, log, nil)
	eng.Start()

	for _, sym := range splitNonEmpty(*symbols) {
		if err := eng.AddSymbol(sym); err != nil {
			log.WithError(err).WithField("symbol", sym).Warn("failed to pre-register symbol")
		}
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.WithError(err).Fatal("listen failed")
	}
	log.WithField("addr", *addr).Info("gateway listening")

	go acceptLoop(ln, eng, log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	log.Info("shutting down gateway")
	_ = ln.Close()
	eng.Stop()
}

func acceptLoop(ln net.Listener, eng *engine.Engine, log *logrus.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handleConn(conn, eng, log)
	}
}

func handleConn(conn net.Conn, eng *engine.Engine, log *logrus.Logger) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	writer := bufio.NewWriter(conn)
	defer writer.Flush()

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		cmd, err := parseLine(line)
		if err != nil {
			writeLine(writer, "UNKNOWN|"+err.Error())
			continue
		}
		dispatch(eng, cmd, writer, log)
	}
}

func dispatch(eng *engine.Engine, cmd command, w *bufio.Writer, log *logrus.Logger) {
	switch cmd.typ {
	case cmdSubmitOrder:
		trades, err := eng.Submit(cmd.order)
		if err != nil {
			writeLine(w, "UNKNOWN|"+err.Error())
			return
		}
		// Submit matches a copy of cmd.order; every trade it returns
		// fills this order, so the trades give its filled quantity.
		var filled uint64
		for _, t := range trades {
			filled += t.Quantity
		}
		writeLine(w, fmt.Sprintf("ORDER|%d,%d,%d", uint64(cmd.order.ID), cmd.order.Quantity-filled, filled))
		for _, t := range trades {
			writeLine(w, fmt.Sprintf("TRADE|%d,%s,%d,%d,%s,%d", uint64(t.TradeID), t.Symbol, uint64(t.BuyOrderID), uint64(t.SellOrderID), t.Price.String(), t.Quantity))
		}
	case cmdCancelOrder:
		ok := eng.Cancel(cmd.orderID, cmd.symbol)
		writeLine(w, fmt.Sprintf("CANCEL|%d,%t", uint64(cmd.orderID), ok))
	case cmdModifyOrder:
		ok, err := eng.Modify(cmd.orderID, cmd.symbol, cmd.price, cmd.quantity)
		if err != nil {
			writeLine(w, "UNKNOWN|"+err.Error())
			return
		}
		writeLine(w, fmt.Sprintf("ORDER|%d,%t", uint64(cmd.orderID), ok))
	case cmdGetBestBid:
		if bid, ok := eng.BestBid(cmd.symbol); ok {
			writeLine(w, "ORDER|"+bid.String())
		} else {
			writeLine(w, "ORDER|NONE")
		}
	case cmdGetBestAsk:
		if ask, ok := eng.BestAsk(cmd.symbol); ok {
			writeLine(w, "ORDER|"+ask.String())
		} else {
			writeLine(w, "ORDER|NONE")
		}
	case cmdGetSpread:
		if spread, ok := eng.Spread(cmd.symbol); ok {
			writeLine(w, "ORDER|"+spread.String())
		} else {
			writeLine(w, "ORDER|NONE")
		}
	case cmdGetMarketDepth:
		depth, ok := eng.MarketDepth(cmd.symbol, cmd.levels)
		if !ok {
			writeLine(w, "UNKNOWN|"+(&model.UnknownSymbolError{Symbol: cmd.symbol}).Error())
			return
		}
		writeLine(w, fmt.Sprintf("ORDER|%s,%d", depth.Symbol, depth.TotalOrders))
	default:
		writeLine(w, "UNKNOWN|unhandled command")
	}
}

func writeLine(w *bufio.Writer, s string) {
	w.WriteString(s)
	w.WriteByte('\n')
	w.Flush()
}

func splitNonEmpty(csv string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			if i > start {
				out = append(out, csv[start:i])
			}
			start = i + 1
		}
	}
	return out
}
