// Package kst drives a running Kst plotting application over its local
// script socket.
//
// A Client owns one session. Objects created through it (vectors,
// curves, plots, labels, ...) are addressed by server-assigned handles;
// every accessor and setter on them runs inside a begin/end edit
// transaction on that handle.
//
//	c, err := kst.Connect(ctx, config.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	x, _ := c.NewGeneratedVector(ctx, kst.GeneratedVectorParams{From: 0, To: 10, Count: 1000})
//	y, _ := c.NewEquation(ctx, kst.EquationParams{Expression: "sin(x)", X: x})
//	out, _ := y.Y(ctx)
//	curve, _ := c.NewCurve(ctx, kst.CurveParams{X: x, Y: out})
//	plot, _ := c.NewPlot(ctx, kst.PlotParams{})
//	_ = plot.Add(ctx, curve)
package kst
