package extract

// UnknownType marks a declared type the extractor could not map into the
// stub vocabulary. Recording it keeps the rest of the class usable instead
// of failing the extraction.
const UnknownType = "unknown"

// TypeMapping translates declared value types into the stub format's
// primitive vocabulary. Declared names outside this table are resolved as
// component references (registered or native) or recorded as unknown.
var TypeMapping = map[string]string{
	"int":    "int",
	"float":  "double",
	"bool":   "bool",
	"str":    "QString",
	"bytes":  "QByteArray",
	"list":   "QVariantList",
	"dict":   "QVariantMap",
	"object": "QVariant",
	"void":   "void",
	"None":   "void",
	"":       "void",

	// Core value types pass through unchanged.
	"QString":      "QString",
	"QByteArray":   "QByteArray",
	"QVariant":     "QVariant",
	"QVariantList": "QVariantList",
	"QVariantMap":  "QVariantMap",
	"QUrl":         "QUrl",
	"QColor":       "QColor",
	"QDateTime":    "QDateTime",
	"QDate":        "QDate",
	"QTime":        "QTime",
	"QPointF":      "QPointF",
	"QSizeF":       "QSizeF",
	"QRectF":       "QRectF",
	"double":       "double",
	"qreal":        "double",
}

// NativeIndex answers whether a class name belongs to the runtime's own
// reflectable core types (built from the metatypes directory). Such
// ancestors are referenced by name only, never re-described.
type NativeIndex interface {
	Has(className string) bool
}

// NoNative is an empty index for callers without core metatype data.
var NoNative NativeIndex = emptyIndex{}

type emptyIndex struct{}

func (emptyIndex) Has(string) bool { return false }
