package generate

import (
	"fmt"
	"os"
	"strings"
	"unicode"
)

// builtinWords is the default vocabulary for <text> patterns.
var builtinWords = strings.Fields(`
the be to of and a in that have it for not on with he as you do at this but
his by from they we say her she or an will my one all would there their what
so up out if about who get which go me when make can like time no just him
know take people into year your good some could them see other than then now
look only come its over think also back after use two how our work first well
way even new want because any these give day most us man thing woman life
child world school state family student group country problem hand part place
case week company system program question government number night point home
water room mother area money story fact month lot right study book eye job
word business issue side kind head house service friend father power hour
game line end member law car city community name president team minute idea
body information nothing ago face others level office door health person art
war history party result change morning reason research girl guy moment air
teacher force education foot boy age policy process music market sense nation
plan college interest death experience effect light control field pain
development role effort rate heart drug show leader light voice wife whole
police mind price report decision son view relationship town road arm
difference value building action model season society tax director position
player record paper space ground form event official matter center couple
site project activity star table need court american oil situation cost
industry figure street image phone data picture practice piece land product
doctor wall patient worker news test movie north love support technology
step baby computer type attention film tree source kid director rest
campaign future trade army camera fire city freedom plant spring summer
winter autumn river mountain ocean forest island bridge garden window
message letter answer machine science nature culture language history
memory dream sound stone glass metal paper cloth bread fruit animal bird
fish horse sleep smile laugh dance sing write read learn teach build grow
open close start finish help turn walk run jump stand sit wait watch listen
speak travel visit return arrive leave enter follow carry bring send find
lose keep hold catch throw push pull cut break fix clean cook eat drink
buy sell pay count measure weigh compare choose decide agree refuse accept
`)

// loadWordlist tokenizes a user-supplied vocabulary file on whitespace and
// punctuation.
func loadWordlist(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile failed: %w", err)
	}

	words := strings.FieldsFunc(string(raw), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil, fmt.Errorf("wordlist %v contains no words", path)
	}

	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	return words, nil
}
