package kst

import "github.com/g960059/kstclient/protocol"

// Kind describes one family of server objects: how to create it and how
// to list existing ones. Every proxy type shares the same Object
// machinery; a Kind only supplies the verbs.
type Kind struct {
	Name string
	// Create is the creation verb; Plugin, when set, is its argument.
	Create string
	Plugin string
	// List is the list query verb. BracketList marks "[a][b]" replies.
	List        string
	BracketList bool
}

func (k Kind) createCommand(args ...any) protocol.Command {
	if k.Plugin != "" {
		args = append([]any{k.Plugin}, args...)
	}
	return protocol.NewCommand(k.Create, args...)
}

var (
	KindString           = Kind{Name: "String"}
	KindGeneratedString  = Kind{Name: "GeneratedString", Create: "newGeneratedString"}
	KindDataSourceString = Kind{Name: "DataSourceString", Create: "newDataString"}

	KindScalar           = Kind{Name: "Scalar", List: "getScalarList"}
	KindGeneratedScalar  = Kind{Name: "GeneratedScalar", Create: "newGeneratedScalar", List: "getScalarList"}
	KindDataSourceScalar = Kind{Name: "DataSourceScalar", Create: "newDataScalar", List: "getScalarList"}
	KindVectorScalar     = Kind{Name: "VectorScalar", Create: "newVectorScalar", List: "getScalarList"}

	KindVector          = Kind{Name: "Vector", List: "getVectorList"}
	KindDataVector      = Kind{Name: "DataVector", Create: "newDataVector", List: "getVectorList"}
	KindGeneratedVector = Kind{Name: "GeneratedVector", Create: "newGeneratedVector", List: "getVectorList"}
	KindEditableVector  = Kind{Name: "EditableVector", Create: "newEditableVector", List: "getVectorList"}

	KindMatrix         = Kind{Name: "Matrix"}
	KindDataMatrix     = Kind{Name: "DataMatrix", Create: "newDataMatrix"}
	KindEditableMatrix = Kind{Name: "EditableMatrix", Create: "newEditableMatrix"}

	KindCurve = Kind{Name: "Curve", Create: "newCurve"}
	KindImage = Kind{Name: "Image", Create: "newImage"}

	KindEquation            = Kind{Name: "Equation", Create: "newEquation"}
	KindHistogram           = Kind{Name: "Histogram", Create: "newHistogram"}
	KindSpectrum            = Kind{Name: "Spectrum", Create: "newSpectrum"}
	KindLinearFit           = Kind{Name: "LinearFit", Create: "newPlugin", Plugin: "Linear Fit"}
	KindLinearWeightedFit   = Kind{Name: "LinearFit", Create: "newPlugin", Plugin: "Linear Weighted Fit"}
	KindPolynomialFit       = Kind{Name: "PolynomialFit", Create: "newPlugin", Plugin: "Polynomial Fit"}
	KindPolynomialWeightFit = Kind{Name: "PolynomialFit", Create: "newPlugin", Plugin: "Polynomial Weighted Fit"}
	KindFlagFilter          = Kind{Name: "FlagFilter", Create: "newPlugin", Plugin: "Flag Filter"}

	KindLabel   = Kind{Name: "Label", Create: "newLabel", List: "getLabelList", BracketList: true}
	KindLegend  = Kind{Name: "Legend", Create: "newLegend"}
	KindBox     = Kind{Name: "Box", Create: "newBox", List: "getBoxList", BracketList: true}
	KindCircle  = Kind{Name: "Circle", Create: "newCircle", List: "getCircleList", BracketList: true}
	KindEllipse = Kind{Name: "Ellipse", Create: "newEllipse", List: "getEllipseList", BracketList: true}
	KindLine    = Kind{Name: "Line", Create: "newLine", List: "getLineList", BracketList: true}
	KindArrow   = Kind{Name: "Arrow", Create: "newArrow", List: "getArrowList", BracketList: true}
	KindPicture = Kind{Name: "Picture", Create: "newPicture", List: "getPictureList", BracketList: true}
	KindSVG     = Kind{Name: "SVG", Create: "newSvgItem", List: "getSVGList", BracketList: true}
	KindPlot    = Kind{Name: "Plot", Create: "newPlot", List: "getPlotList", BracketList: true}

	KindButton   = Kind{Name: "Button", Create: "newButton"}
	KindLineEdit = Kind{Name: "LineEdit", Create: "newLineEdit"}
)
