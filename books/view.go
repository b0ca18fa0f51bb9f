package books

import (
	"github.com/luteorg/lute-api/datatable"
)

// baseSQL lists every book with at least one page, joined with its language,
// page counts, tags and cached reading stats.
const baseSQL = `
SELECT
	books.BkID AS BkID,
	LgName,
	languages.LgRightToLeft AS LgRightToLeft,
	languages.LgParserType AS LgParserType,
	BkLgID,
	BkSourceURI,
	BkTitle,
	BkAudioFilename,
	BkAudioCurrentPos,
	BkAudioBookmarks,
	CASE WHEN currtext.TxID IS NULL THEN 1 ELSE currtext.TxOrder END AS PageNum,
	textcounts.pagecount AS PageCount,
	booklastopened.lastopeneddate AS LastOpenedDate,
	BkArchived,
	booktaglist.taglist AS TagList,
	textcounts.wc AS WordCount,
	bookstats.distinctterms AS DistinctCount,
	bookstats.distinctunknowns AS UnknownCount,
	bookstats.unknownpercent AS UnknownPercent,
	bookstats.status_distribution AS StatusDistribution,
	CASE WHEN completed.BkID IS NULL THEN 0 ELSE 1 END AS IsCompleted
FROM books
INNER JOIN languages ON LgID = books.BkLgID
LEFT OUTER JOIN texts currtext ON currtext.TxID = BkCurrentTxID
INNER JOIN (
	SELECT TxBkID, MAX(TxStartDate) AS lastopeneddate FROM texts GROUP BY TxBkID
) booklastopened ON booklastopened.TxBkID = books.BkID
INNER JOIN (
	SELECT TxBkID, SUM(TxWordCount) AS wc, COUNT(TxID) AS pagecount
	FROM texts
	GROUP BY TxBkID
) textcounts ON textcounts.TxBkID = books.BkID
LEFT OUTER JOIN bookstats ON bookstats.BkID = books.BkID
LEFT OUTER JOIN (
	SELECT BtBkID AS BkID, GROUP_CONCAT(T2Text, ', ') AS taglist
	FROM (
		SELECT BtBkID, T2Text
		FROM booktags bt
		INNER JOIN tags2 t2 ON t2.T2ID = bt.BtT2ID
		ORDER BY T2Text
	) tagssrc
	GROUP BY BtBkID
) AS booktaglist ON booktaglist.BkID = books.BkID
LEFT OUTER JOIN (
	SELECT texts.TxBkID AS BkID
	FROM texts
	INNER JOIN (
		SELECT TxBkID, MAX(TxOrder) AS maxTxOrder FROM texts GROUP BY TxBkID
	) lastpage ON lastpage.TxBkID = texts.TxBkID AND lastpage.maxTxOrder = texts.TxOrder
	WHERE TxReadDate IS NOT NULL
) completed ON completed.BkID = books.BkID`

// View is the book listing.
var View = datatable.View{
	Name:  "books",
	SQL:   baseSQL,
	Table: "books",
	Fields: datatable.Fields{
		"title":        {Column: "BkTitle", Searchable: true},
		"languageName": {Column: "LgName", Searchable: true},
		"tags":         {Column: "TagList"},
		"wordCount":    {Column: "WordCount", Numeric: true, Searchable: true},
		"status":       {Column: "UnknownPercent", Numeric: true, Searchable: true},
		"lastRead":     {Column: "LastOpenedDate"},
	},
	DefaultOrder: []string{"BkID DESC"},
}.MustValidate()
