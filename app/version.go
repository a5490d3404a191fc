package app

var PsxTaxVersion = "0.1.0"
